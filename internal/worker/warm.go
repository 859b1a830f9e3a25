// Package worker runs background maintenance loops.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// MintResolver resolves prices for a set of mints, refreshing the cache as a
// side effect.
type MintResolver interface {
	Resolve(ctx context.Context, mints []string) (map[string]decimal.Decimal, error)
}

// WarmWorker periodically re-resolves a fixed set of mints so the price cache
// stays fresh for the tokens every portfolio needs.
type WarmWorker struct {
	resolver MintResolver
	mints    []string
	interval time.Duration
}

// NewWarmWorker creates a new WarmWorker.
func NewWarmWorker(resolver MintResolver, mints []string, interval time.Duration) *WarmWorker {
	return &WarmWorker{
		resolver: resolver,
		mints:    mints,
		interval: interval,
	}
}

// Run starts the warm loop. It blocks until the context is cancelled.
func (w *WarmWorker) Run(ctx context.Context) {
	slog.Info("WarmWorker: starting", "mints", len(w.mints))

	// Warm immediately on startup
	w.warm(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("WarmWorker: shutting down")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *WarmWorker) warm(ctx context.Context) {
	prices, err := w.resolver.Resolve(ctx, w.mints)
	if err != nil {
		slog.Error("WarmWorker: warm failed", "error", err)
		return
	}
	slog.Info("WarmWorker: warm completed", "priced", len(prices))
}
