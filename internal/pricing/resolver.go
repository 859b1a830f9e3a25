package pricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/soltools/portfolio/internal/cache"
)

// PriceFetcher fetches one batch of prices from the upstream price service.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, mints []string) (PriceMap, error)
}

// Resolver answers bulk price lookups, consulting the cache first and only
// querying upstream for misses, in bounded-size batches with pacing between
// them.
type Resolver struct {
	fetcher    PriceFetcher
	store      *cache.Store
	batchSize  int
	batchDelay time.Duration
}

// NewResolver creates a Resolver. batchSize bounds the number of mints per
// upstream request; batchDelay is waited before every batch after the first.
func NewResolver(fetcher PriceFetcher, store *cache.Store, batchSize int, batchDelay time.Duration) *Resolver {
	return &Resolver{
		fetcher:    fetcher,
		store:      store,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// Resolve returns USD prices for exactly the requested mints, omitting any
// mint with no discoverable price. A failing batch leaves its mints
// unresolved and processing continues; only context cancellation aborts the
// whole call. Deduplication is the caller's responsibility.
func (r *Resolver) Resolve(ctx context.Context, mints []string) (map[string]decimal.Decimal, error) {
	known := make(map[string]decimal.Decimal)
	r.store.Read(cache.CategoryPrices, &known)

	missing := lo.Filter(mints, func(mint string, _ int) bool {
		_, ok := known[mint]
		return !ok
	})

	if len(missing) > 0 {
		fetched := 0
		for i, batch := range lo.Chunk(missing, r.batchSize) {
			if i > 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(r.batchDelay):
				}
			}

			pm, err := r.fetcher.FetchPrices(ctx, batch)
			if err != nil {
				slog.Warn("price batch failed, leaving mints unresolved", "batch", i, "size", len(batch), "error", err)
				continue
			}
			for mint, price := range pm.Prices {
				known[mint] = price
			}
			fetched += len(pm.Prices)
			slog.Info("price batch resolved", "batch", i, "requested", len(batch), "priced", len(pm.Prices), "source", pm.Source)
		}

		// One write after all batches, not per batch.
		if fetched > 0 {
			if err := r.store.Write(cache.CategoryPrices, known); err != nil {
				slog.Warn("persisting price cache failed", "error", err)
			}
		}
	}

	result := make(map[string]decimal.Decimal, len(mints))
	for _, mint := range mints {
		if price, ok := known[mint]; ok {
			result[mint] = price
		}
	}
	return result, nil
}
