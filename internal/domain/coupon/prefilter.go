package coupon

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// prefilterFPR is the target false-positive rate for the code filter. A false
// positive only costs one extra repository lookup.
const prefilterFPR = 0.001

var _ Resolver = (*Prefilter)(nil)

// Prefilter wraps a Resolver with a bloom filter over the active coupon
// codes, rejecting codes that definitely do not exist without a repository
// round-trip. Useful when the coupon table is large and most submitted codes
// are junk.
//
// The filter is a snapshot: a coupon activated after the last Rebuild is
// rejected until the next one. Run Start to refresh periodically.
type Prefilter struct {
	next Resolver
	repo Repository

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewPrefilter creates a Prefilter delegating to next. Until the first
// Rebuild the filter passes every code through.
func NewPrefilter(next Resolver, repo Repository) *Prefilter {
	return &Prefilter{next: next, repo: repo}
}

// Rebuild replaces the filter with a fresh snapshot of the active codes.
func (p *Prefilter) Rebuild(ctx context.Context) error {
	codes, err := p.repo.ListActiveCodes(ctx)
	if err != nil {
		return errors.Wrap(err, "list active codes")
	}

	n := uint(len(codes))
	if n < 1024 {
		n = 1024
	}
	f := bloom.NewWithEstimates(n, prefilterFPR)
	for _, code := range codes {
		f.AddString(code)
	}

	p.mu.Lock()
	p.filter = f
	p.mu.Unlock()
	return nil
}

// Start launches a goroutine that rebuilds the filter every interval until
// ctx is cancelled. Rebuild failures are logged and the previous snapshot
// stays in place.
func (p *Prefilter) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.Rebuild(ctx); err != nil {
					zctx.From(ctx).Warn("coupon prefilter rebuild failed", zap.Error(err))
				}
			}
		}
	}()
}

// Resolve rejects codes absent from the filter, otherwise delegates.
func (p *Prefilter) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if code == "" {
		return p.next.Resolve(ctx, code, subtotal)
	}

	p.mu.RLock()
	f := p.filter
	p.mu.RUnlock()

	if f != nil && !f.TestString(code) {
		return decimal.Zero, ErrInvalidCoupon
	}
	return p.next.Resolve(ctx, code, subtotal)
}
