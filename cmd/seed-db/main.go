// Command seed-db loads an initial dataset (users with API keys, product
// variants, coupons) from a JSON file into the database. Existing rows with
// matching keys are updated, so the tool is safe to rerun.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/freshkart/backend/internal/repository"
)

type seedFile struct {
	Users    []userJSON    `json:"users"`
	Variants []variantJSON `json:"variants"`
	Coupons  []couponJSON  `json:"coupons"`
}

type userJSON struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	APIKey   string `json:"api_key"`
	Address  *struct {
		AddressLine string `json:"address_line"`
		City        string `json:"city"`
		PostalCode  string `json:"postal_code"`
	} `json:"address"`
}

type variantJSON struct {
	ProductName     string          `json:"product_name"`
	Unit            string          `json:"unit"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent int             `json:"discount_percent"`
	Stock           int             `json:"stock"`
}

type couponJSON struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	MinimumAmount  decimal.Decimal `json:"minimum_amount"`
	Active         bool            `json:"active"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/freshkart.json", "path to seed JSON file")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	slog.Info("reading seed file", slog.String("path", seedPath))

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return errors.Wrap(err, "parse seed JSON")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedUsers(ctx, pool, seed.Users); err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedVariants(ctx, pool, seed.Variants); err != nil {
		return errors.Wrap(err, "seed variants")
	}
	if err := seedCoupons(ctx, pool, seed.Coupons); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

const upsertUserSQL = `
INSERT INTO users (id, username, full_name, user_role, api_key_hash)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (username) DO UPDATE SET
    full_name    = EXCLUDED.full_name,
    user_role    = EXCLUDED.user_role,
    api_key_hash = EXCLUDED.api_key_hash
RETURNING id`

const insertAddressSQL = `
INSERT INTO addresses (id, user_id, address_line, city, postal_code, is_default)
SELECT $1, $2, $3, $4, $5, TRUE
WHERE NOT EXISTS (SELECT 1 FROM addresses WHERE user_id = $2 AND is_default)`

func seedUsers(ctx context.Context, pool *pgxpool.Pool, users []userJSON) error {
	for _, u := range users {
		role := u.Role
		if role == "" {
			role = "customer"
		}
		sum := sha256.Sum256([]byte(u.APIKey))

		var userID uuid.UUID
		err := pool.QueryRow(ctx, upsertUserSQL,
			uuid.New(), u.Username, u.FullName, role, hex.EncodeToString(sum[:]),
		).Scan(&userID)
		if err != nil {
			return errors.Wrapf(err, "upsert user %s", u.Username)
		}

		if u.Address != nil {
			if _, err := pool.Exec(ctx, insertAddressSQL,
				uuid.New(), userID, u.Address.AddressLine, u.Address.City, u.Address.PostalCode,
			); err != nil {
				return errors.Wrapf(err, "insert address for %s", u.Username)
			}
		}
	}

	slog.Info("seeded users", slog.Int("count", len(users)))
	return nil
}

const insertVariantSQL = `
INSERT INTO variants (id, product_name, unit, unit_price, discount_percent, stock)
SELECT $1, $2, $3, $4, $5, $6
WHERE NOT EXISTS (SELECT 1 FROM variants WHERE product_name = $2 AND unit = $3)`

func seedVariants(ctx context.Context, pool *pgxpool.Pool, variants []variantJSON) error {
	for _, v := range variants {
		if _, err := pool.Exec(ctx, insertVariantSQL,
			uuid.New(), v.ProductName, v.Unit, v.UnitPrice, v.DiscountPercent, v.Stock,
		); err != nil {
			return errors.Wrapf(err, "insert variant %s %s", v.ProductName, v.Unit)
		}
	}

	slog.Info("seeded variants", slog.Int("count", len(variants)))
	return nil
}

const upsertCouponSQL = `
INSERT INTO coupons (code, discount_amount, minimum_amount, active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO UPDATE SET
    discount_amount = EXCLUDED.discount_amount,
    minimum_amount  = EXCLUDED.minimum_amount,
    active          = EXCLUDED.active`

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, coupons []couponJSON) error {
	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL,
			c.Code, c.DiscountAmount, c.MinimumAmount, c.Active,
		); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
	}

	slog.Info("seeded coupons", slog.Int("count", len(coupons)))
	return nil
}
