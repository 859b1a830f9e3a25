package domain

// Mints of well-known assets that are always trusted regardless of reported
// price, value, or liquidity: native SOL, the major stablecoins, and a short
// list of prominent community tokens.
var WellKnownMints = []string{
	NativeMint,
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN",  // JUP
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", // BONK
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",  // mSOL
}

// Allowlist is a fixed set of mint addresses exempted from liquidity
// screening.
type Allowlist map[string]struct{}

// NewAllowlist builds an allowlist from the well-known mints plus any extra
// configured mints.
func NewAllowlist(extra []string) Allowlist {
	a := make(Allowlist, len(WellKnownMints)+len(extra))
	for _, mint := range WellKnownMints {
		a[mint] = struct{}{}
	}
	for _, mint := range extra {
		if mint != "" {
			a[mint] = struct{}{}
		}
	}
	return a
}

// Contains reports whether the mint is allowlisted.
func (a Allowlist) Contains(mint string) bool {
	_, ok := a[mint]
	return ok
}
