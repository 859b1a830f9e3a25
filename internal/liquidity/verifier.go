// Package liquidity decides whether a token's reported price can be trusted.
// A price can exist for an asset with negligible real liquidity — a pricing
// artifact or a scam token inflating its own apparent value — so tokens above
// certain value tiers get screened against a market-pair data source.
package liquidity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soltools/portfolio/internal/domain"
)

// Outcome is the verifier's decision for one token.
type Outcome int

const (
	// OutcomeTrusted keeps the token with its price and value.
	OutcomeTrusted Outcome = iota
	// OutcomeTrustedSmall trusts the token without a deep check because its
	// value is too small to justify the extra round trip.
	OutcomeTrustedSmall
	// OutcomeRejected strips the token's price and value and removes it from
	// the portfolio.
	OutcomeRejected
)

// PairSource looks up tradable markets for a mint.
type PairSource interface {
	Pairs(ctx context.Context, mint string) ([]Pair, error)
}

// Verifier applies the tiered trust policy: allowlist short-circuit, a
// low-value pass-through, a deep liquidity check for high values, and a
// pair-existence check in between. Thresholds and the allowlist are
// configuration, not code. A single Verifier is shared across concurrent
// requests; the pacing schedule is the only mutable state.
type Verifier struct {
	allowlist    domain.Allowlist
	pairs        PairSource
	low          decimal.Decimal
	high         decimal.Decimal
	minLiquidity decimal.Decimal
	checkDelay   time.Duration

	mu         sync.Mutex
	nextLookup time.Time
}

// NewVerifier creates a Verifier. checkDelay is waited between consecutive
// per-token lookups to respect the pair source's rate limits.
func NewVerifier(allowlist domain.Allowlist, pairs PairSource, low, high, minLiquidity decimal.Decimal, checkDelay time.Duration) *Verifier {
	return &Verifier{
		allowlist:    allowlist,
		pairs:        pairs,
		low:          low,
		high:         high,
		minLiquidity: minLiquidity,
		checkDelay:   checkDelay,
	}
}

// Verify decides, for a priced token, whether to trust or reject its value.
// Rules are evaluated in order; the first match wins. Lookup failures fail
// open: a transient infrastructure error must not reject a real holding.
func (v *Verifier) Verify(ctx context.Context, token domain.Token) Outcome {
	if v.allowlist.Contains(token.Mint) {
		return OutcomeTrusted
	}

	if token.Value == nil {
		return OutcomeTrusted
	}
	value := *token.Value

	if value.LessThanOrEqual(v.low) {
		return OutcomeTrustedSmall
	}

	if err := v.pace(ctx); err != nil {
		return OutcomeTrusted
	}

	pairs, err := v.pairs.Pairs(ctx, token.Mint)

	if value.GreaterThan(v.high) {
		// Deep check: a high-value holding with no real market is treated as
		// fraudulent.
		if err != nil {
			slog.Warn("deep liquidity check failed, trusting token", "mint", token.Mint, "value", value, "error", err)
			return OutcomeTrusted
		}
		if len(pairs) == 0 {
			slog.Info("rejecting token with no market record", "mint", token.Mint, "value", value)
			return OutcomeRejected
		}
		liq := maxLiquidity(pairs)
		if liq.LessThan(v.minLiquidity) {
			slog.Info("rejecting token below liquidity minimum", "mint", token.Mint, "value", value, "liquidity", liq)
			return OutcomeRejected
		}
		return OutcomeTrusted
	}

	// Mid-range: a lighter pair-existence check.
	if err != nil {
		slog.Warn("pair-existence check failed, trusting token", "mint", token.Mint, "value", value, "error", err)
		return OutcomeTrusted
	}
	if len(pairs) == 0 {
		slog.Info("rejecting token with no tradable market", "mint", token.Mint, "value", value)
		return OutcomeRejected
	}
	return OutcomeTrusted
}

// pace waits until this lookup's slot in the schedule. Each caller claims the
// next slot under the lock and waits outside it, so concurrent lookups are
// spaced checkDelay apart and the first one goes through immediately.
func (v *Verifier) pace(ctx context.Context) error {
	if v.checkDelay <= 0 {
		return nil
	}

	v.mu.Lock()
	now := time.Now()
	at := v.nextLookup
	if at.Before(now) {
		at = now
	}
	v.nextLookup = at.Add(v.checkDelay)
	v.mu.Unlock()

	wait := time.Until(at)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func maxLiquidity(pairs []Pair) decimal.Decimal {
	best := decimal.Zero
	for _, p := range pairs {
		if p.LiquidityUSD.GreaterThan(best) {
			best = p.LiquidityUSD
		}
	}
	return best
}
