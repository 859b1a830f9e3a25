// Package portfolio assembles raw wallet holdings into a priced, verified
// portfolio.
package portfolio

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/soltools/portfolio/internal/domain"
	"github.com/soltools/portfolio/internal/liquidity"
)

// PriceResolver resolves USD prices for a set of mints.
type PriceResolver interface {
	Resolve(ctx context.Context, mints []string) (map[string]decimal.Decimal, error)
}

// ValueVerifier decides whether a priced token's value can be trusted.
type ValueVerifier interface {
	Verify(ctx context.Context, token domain.Token) liquidity.Outcome
}

// Labeler attaches symbol, name and icon to tokens.
type Labeler interface {
	Label(ctx context.Context, tokens []domain.Token) error
}

// Service builds portfolios from scanned holdings: label, price, verify,
// sort, total.
type Service struct {
	prices    PriceResolver
	verifier  ValueVerifier
	metadata  Labeler
	allowlist domain.Allowlist
	now       func() time.Time
}

// NewService creates a portfolio Service.
func NewService(prices PriceResolver, verifier ValueVerifier, metadata Labeler, allowlist domain.Allowlist) *Service {
	return &Service{
		prices:    prices,
		verifier:  verifier,
		metadata:  metadata,
		allowlist: allowlist,
		now:       time.Now,
	}
}

// BuildPortfolio prices and verifies the scanned tokens and assembles the
// final portfolio. Tokens whose value the verifier rejects are removed;
// tokens without a price are kept and contribute zero to the total. A total
// pricing failure degrades to an unpriced portfolio rather than an error.
func (s *Service) BuildPortfolio(ctx context.Context, address string, tokens []domain.Token) (domain.Portfolio, error) {
	if s.metadata != nil {
		if err := s.metadata.Label(ctx, tokens); err != nil {
			slog.Warn("labeling tokens failed", "address", address, "error", err)
		}
	}

	mints := lo.Uniq(lo.Map(tokens, func(t domain.Token, _ int) string {
		return t.Mint
	}))

	prices, err := s.prices.Resolve(ctx, mints)
	if err != nil {
		slog.Error("price resolution failed, returning unpriced portfolio",
			"address", address, "error", err)
		return s.assemble(address, tokens), nil
	}

	for i := range tokens {
		price, ok := prices[tokens[i].Mint]
		if !ok {
			continue
		}
		tokens[i].SetPrice(price)
	}

	kept := tokens[:0]
	for _, t := range tokens {
		if t.Price == nil {
			kept = append(kept, t)
			continue
		}
		switch s.verifier.Verify(ctx, t) {
		case liquidity.OutcomeRejected:
			slog.Info("dropping token with unverifiable value",
				"address", address, "mint", t.Mint, "value", t.Value)
		default:
			kept = append(kept, t)
		}
	}

	return s.assemble(address, kept), nil
}

// assemble sorts the retained tokens (allowlisted first, then by descending
// value) and computes the total.
func (s *Service) assemble(address string, tokens []domain.Token) domain.Portfolio {
	sort.SliceStable(tokens, func(i, j int) bool {
		iListed := s.allowlist.Contains(tokens[i].Mint)
		jListed := s.allowlist.Contains(tokens[j].Mint)
		if iListed != jListed {
			return iListed
		}
		return tokenValue(tokens[i]).GreaterThan(tokenValue(tokens[j]))
	})

	total := decimal.Zero
	for _, t := range tokens {
		total = total.Add(tokenValue(t))
	}

	return domain.Portfolio{
		Address:     address,
		Tokens:      tokens,
		TotalValue:  total,
		TokenCount:  len(tokens),
		LastUpdated: s.now(),
	}
}

func tokenValue(t domain.Token) decimal.Decimal {
	if t.Value == nil {
		return decimal.Zero
	}
	return *t.Value
}
