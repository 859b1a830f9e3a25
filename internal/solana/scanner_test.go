package solana

import (
	"context"
	"errors"
	"testing"

	"github.com/soltools/portfolio/internal/domain"
)

const validOwner = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

func TestScanWalletBuildsTokens(t *testing.T) {
	server := fakeRPC(t, map[string]string{
		"getTokenAccountsByOwner": tokenAccountsFixture,
		"getBalance":              `{"context":{"slot":100},"value":3000000000}`,
	})
	defer server.Close()

	scanner := NewScanner(NewClient(server.URL))
	tokens, err := scanner.ScanWallet(context.Background(), validOwner)
	if err != nil {
		t.Fatalf("ScanWallet: %v", err)
	}

	// MintA plus the native SOL pseudo-token; the zero-balance MintB dropped.
	if len(tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(tokens))
	}

	if tokens[0].Mint != "MintA" {
		t.Errorf("tokens[0].Mint = %q, want MintA", tokens[0].Mint)
	}
	if tokens[0].UIBalance.String() != "1.5" {
		t.Errorf("tokens[0].UIBalance = %s, want 1.5", tokens[0].UIBalance)
	}
	if tokens[0].Price != nil || tokens[0].Value != nil {
		t.Error("scanned tokens must be unpriced")
	}

	sol := tokens[1]
	if sol.Mint != domain.NativeMint || sol.Symbol != "SOL" || sol.Name != "Solana" {
		t.Errorf("native token = %+v", sol)
	}
	if sol.UIBalance.String() != "3" {
		t.Errorf("native UIBalance = %s, want 3", sol.UIBalance)
	}
}

func TestScanWalletZeroNativeBalance(t *testing.T) {
	server := fakeRPC(t, map[string]string{
		"getTokenAccountsByOwner": `{"context":{"slot":1},"value":[]}`,
		"getBalance":              `{"context":{"slot":1},"value":0}`,
	})
	defer server.Close()

	scanner := NewScanner(NewClient(server.URL))
	tokens, err := scanner.ScanWallet(context.Background(), validOwner)
	if err != nil {
		t.Fatalf("ScanWallet: %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("len(tokens) = %d, want 0 for empty wallet", len(tokens))
	}
}

func TestScanWalletNativeBalanceFailureAbsorbed(t *testing.T) {
	server := fakeRPC(t, map[string]string{
		"getTokenAccountsByOwner": tokenAccountsFixture,
		// getBalance unconfigured -> RPC error
	})
	defer server.Close()

	scanner := NewScanner(NewClient(server.URL))
	tokens, err := scanner.ScanWallet(context.Background(), validOwner)
	if err != nil {
		t.Fatalf("a failed native-balance lookup must not fail the scan: %v", err)
	}
	if len(tokens) != 1 {
		t.Errorf("len(tokens) = %d, want 1 (token accounts only)", len(tokens))
	}
}

func TestScanWalletInvalidAddress(t *testing.T) {
	scanner := NewScanner(NewClient("http://127.0.0.1:1"))

	_, err := scanner.ScanWallet(context.Background(), "definitely-not-an-address")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Errorf("err = %v, want ErrInvalidAddress (before any network call)", err)
	}
}
