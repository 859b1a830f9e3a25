package liquidity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soltools/portfolio/internal/domain"
)

// fakePairSource serves canned pairs or errors per mint and counts lookups.
type fakePairSource struct {
	pairs   map[string][]Pair
	errs    map[string]error
	lookups int
}

func (f *fakePairSource) Pairs(_ context.Context, mint string) ([]Pair, error) {
	f.lookups++
	if err := f.errs[mint]; err != nil {
		return nil, err
	}
	return f.pairs[mint], nil
}

func pricedToken(mint string, value int64) domain.Token {
	t := domain.Token{
		Mint:      mint,
		Decimals:  6,
		UIBalance: decimal.NewFromInt(1),
	}
	t.SetPrice(decimal.NewFromInt(value))
	return t
}

func newTestVerifier(src PairSource) *Verifier {
	return NewVerifier(
		domain.NewAllowlist(nil),
		src,
		decimal.NewFromInt(10),
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000),
		0,
	)
}

func TestAllowlistSupremacy(t *testing.T) {
	// Even with a rejecting pair source and an enormous value, an allowlisted
	// mint is trusted without any lookup.
	src := &fakePairSource{}
	v := newTestVerifier(src)

	token := pricedToken(domain.NativeMint, 1_000_000)
	if got := v.Verify(context.Background(), token); got != OutcomeTrusted {
		t.Errorf("allowlisted token outcome = %v, want trusted", got)
	}
	if src.lookups != 0 {
		t.Errorf("allowlisted token triggered %d lookups, want 0", src.lookups)
	}
}

func TestLowValueTrustedWithoutDeepCheck(t *testing.T) {
	src := &fakePairSource{}
	v := newTestVerifier(src)

	// Exactly at the low threshold: trusted, no lookup.
	token := pricedToken("SmallMint", 10)
	if got := v.Verify(context.Background(), token); got != OutcomeTrustedSmall {
		t.Errorf("outcome = %v, want trusted-without-deep-check", got)
	}
	if src.lookups != 0 {
		t.Errorf("low-value token triggered %d lookups, want 0", src.lookups)
	}
}

func TestHighValueDeepCheckRejectsNoRecord(t *testing.T) {
	src := &fakePairSource{}
	v := newTestVerifier(src)

	token := pricedToken("GhostMint", 15_000)
	if got := v.Verify(context.Background(), token); got != OutcomeRejected {
		t.Errorf("outcome = %v, want rejected for token with no market record", got)
	}
	if src.lookups != 1 {
		t.Errorf("lookups = %d, want 1", src.lookups)
	}
}

func TestHighValueDeepCheckLiquidityThreshold(t *testing.T) {
	src := &fakePairSource{pairs: map[string][]Pair{
		"ThinMint": {{DexID: "raydium", LiquidityUSD: decimal.NewFromInt(500)}},
		"DeepMint": {
			{DexID: "raydium", LiquidityUSD: decimal.NewFromInt(200)},
			{DexID: "orca", LiquidityUSD: decimal.NewFromInt(5_000)},
		},
	}}
	v := newTestVerifier(src)

	if got := v.Verify(context.Background(), pricedToken("ThinMint", 15_000)); got != OutcomeRejected {
		t.Errorf("thin-liquidity outcome = %v, want rejected", got)
	}
	// The best pair is what counts, not the first.
	if got := v.Verify(context.Background(), pricedToken("DeepMint", 15_000)); got != OutcomeTrusted {
		t.Errorf("deep-liquidity outcome = %v, want trusted", got)
	}
}

func TestHighValueBoundary(t *testing.T) {
	src := &fakePairSource{pairs: map[string][]Pair{
		"EdgeMint": {{LiquidityUSD: decimal.NewFromInt(50)}},
	}}
	v := newTestVerifier(src)

	// Exactly at the high threshold: mid-range rule (pair existence), so the
	// thin liquidity does not matter.
	if got := v.Verify(context.Background(), pricedToken("EdgeMint", 10_000)); got != OutcomeTrusted {
		t.Errorf("at-threshold outcome = %v, want trusted via pair existence", got)
	}

	// One unit above: deep check kicks in and the thin liquidity rejects.
	if got := v.Verify(context.Background(), pricedToken("EdgeMint", 10_001)); got != OutcomeRejected {
		t.Errorf("above-threshold outcome = %v, want rejected by deep check", got)
	}
}

func TestFailOpenOnInfraError(t *testing.T) {
	src := &fakePairSource{errs: map[string]error{
		"FlakyMint": errors.New("connection reset by peer"),
	}}
	v := newTestVerifier(src)

	if got := v.Verify(context.Background(), pricedToken("FlakyMint", 50_000)); got != OutcomeTrusted {
		t.Errorf("deep-check infra error outcome = %v, want trusted (fail open)", got)
	}
	if got := v.Verify(context.Background(), pricedToken("FlakyMint", 500)); got != OutcomeTrusted {
		t.Errorf("mid-range infra error outcome = %v, want trusted (fail open)", got)
	}
}

func TestMidRangePairExistence(t *testing.T) {
	src := &fakePairSource{pairs: map[string][]Pair{
		"ListedMint": {{DexID: "raydium", LiquidityUSD: decimal.NewFromInt(1)}},
	}}
	v := newTestVerifier(src)

	if got := v.Verify(context.Background(), pricedToken("ListedMint", 500)); got != OutcomeTrusted {
		t.Errorf("listed mid-range outcome = %v, want trusted", got)
	}
	if got := v.Verify(context.Background(), pricedToken("UnlistedMint", 500)); got != OutcomeRejected {
		t.Errorf("unlisted mid-range outcome = %v, want rejected", got)
	}
}

func TestUnpricedTokenTrusted(t *testing.T) {
	v := newTestVerifier(&fakePairSource{})
	token := domain.Token{Mint: "NoPriceMint", UIBalance: decimal.NewFromInt(1)}
	if got := v.Verify(context.Background(), token); got != OutcomeTrusted {
		t.Errorf("unpriced token outcome = %v, want trusted", got)
	}
}

// concurrentPairSource is safe for use from multiple goroutines.
type concurrentPairSource struct {
	lookups atomic.Int64
}

func (f *concurrentPairSource) Pairs(_ context.Context, _ string) ([]Pair, error) {
	f.lookups.Add(1)
	return []Pair{{DexID: "raydium", LiquidityUSD: decimal.NewFromInt(5_000)}}, nil
}

func TestVerifySharedAcrossGoroutines(t *testing.T) {
	// One Verifier serves every concurrent HTTP request, so Verify must be
	// safe to call from multiple goroutines at once.
	src := &concurrentPairSource{}
	v := NewVerifier(
		domain.NewAllowlist(nil),
		src,
		decimal.NewFromInt(10),
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000),
		time.Millisecond,
	)

	const workers = 4
	var wg sync.WaitGroup
	outcomes := make([]Outcome, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = v.Verify(context.Background(), pricedToken("BusyMint", 50_000))
		}()
	}
	wg.Wait()

	for i, got := range outcomes {
		if got != OutcomeTrusted {
			t.Errorf("outcomes[%d] = %v, want trusted", i, got)
		}
	}
	if got := src.lookups.Load(); got != workers {
		t.Errorf("lookups = %d, want %d", got, workers)
	}
}

func TestLookupPacing(t *testing.T) {
	src := &fakePairSource{pairs: map[string][]Pair{
		"PacedMint": {{DexID: "raydium", LiquidityUSD: decimal.NewFromInt(5_000)}},
	}}
	v := NewVerifier(
		domain.NewAllowlist(nil),
		src,
		decimal.NewFromInt(10),
		decimal.NewFromInt(10_000),
		decimal.NewFromInt(1_000),
		50*time.Millisecond,
	)

	// The first lookup goes through immediately; the second waits out the
	// configured delay.
	start := time.Now()
	v.Verify(context.Background(), pricedToken("PacedMint", 50_000))
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("first lookup took %v, want no pacing delay", elapsed)
	}

	start = time.Now()
	v.Verify(context.Background(), pricedToken("PacedMint", 50_000))
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("second lookup took %v, want at least the pacing delay", elapsed)
	}
}
