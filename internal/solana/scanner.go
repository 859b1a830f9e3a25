package solana

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/soltools/portfolio/internal/domain"
)

// Scanner discovers a wallet's raw token holdings from the chain.
type Scanner struct {
	client *Client
}

// NewScanner creates a Scanner over the given RPC client.
func NewScanner(client *Client) *Scanner {
	return &Scanner{client: client}
}

// ScanWallet returns the wallet's holdings with balances and decimals
// populated and symbol/name/price unset. Zero-balance accounts are excluded;
// a positive native SOL balance is appended as a pseudo-token. The address
// is validated before any network call.
func (s *Scanner) ScanWallet(ctx context.Context, address string) ([]domain.Token, error) {
	if !IsValidAddress(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	accounts, err := s.client.TokenAccountsByOwner(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("scanning token accounts for %s: %w", address, err)
	}

	tokens := lo.FilterMap(accounts, func(a TokenAccount, _ int) (domain.Token, bool) {
		if a.Amount == 0 {
			return domain.Token{}, false
		}
		return domain.Token{
			Mint:      a.Mint,
			Decimals:  a.Decimals,
			Balance:   a.Amount,
			UIBalance: domain.UIBalanceFromRaw(a.Amount, a.Decimals),
		}, true
	})

	// The native balance is best-effort: a failed lookup costs one pseudo
	// token, not the whole scan.
	lamports, err := s.client.Balance(ctx, address)
	if err != nil {
		slog.Warn("fetching native balance failed", "address", address, "error", err)
	} else if lamports > 0 {
		tokens = append(tokens, domain.Token{
			Mint:      domain.NativeMint,
			Symbol:    "SOL",
			Name:      "Solana",
			Decimals:  domain.NativeDecimals,
			Balance:   lamports,
			UIBalance: domain.UIBalanceFromRaw(lamports, domain.NativeDecimals),
		})
	}

	return tokens, nil
}
