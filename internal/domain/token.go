package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// NativeMint is the wrapped-SOL mint address used to represent the wallet's
// native SOL balance as a regular token.
const NativeMint = "So11111111111111111111111111111111111111112"

// NativeDecimals is the number of base-unit decimal places in one SOL.
const NativeDecimals = 9

// Token represents a single holding in a wallet.
type Token struct {
	Mint      string           `json:"mint"`
	Symbol    string           `json:"symbol,omitempty"`
	Name      string           `json:"name,omitempty"`
	Decimals  int              `json:"decimals"`
	Balance   uint64           `json:"balance"`
	UIBalance decimal.Decimal  `json:"uiBalance"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Value     *decimal.Decimal `json:"value,omitempty"`
	Icon      string           `json:"icon,omitempty"`
}

// UIBalanceFromRaw converts a raw base-unit balance into its human-scaled
// amount (balance / 10^decimals).
func UIBalanceFromRaw(balance uint64, decimals int) decimal.Decimal {
	raw := new(big.Int).SetUint64(balance)
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// SetPrice attaches a unit price and recomputes the token's value from it.
// Value is never stored independent of price.
func (t *Token) SetPrice(price decimal.Decimal) {
	v := t.UIBalance.Mul(price)
	t.Price = &price
	t.Value = &v
}

// ClearPrice removes both price and value, returning the token to its
// unpriced state.
func (t *Token) ClearPrice() {
	t.Price = nil
	t.Value = nil
}

// IsNFT reports whether the holding is classified as a non-fungible asset.
// Zero decimals is the convention used for NFTs on Solana.
func (t *Token) IsNFT() bool {
	return t.Decimals == 0
}

// Portfolio is the computed snapshot for one wallet address. It is built
// fresh per request and never mutated after being returned.
type Portfolio struct {
	Address     string          `json:"address"`
	Tokens      []Token         `json:"tokens"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TokenCount  int             `json:"tokenCount"`
	LastUpdated time.Time       `json:"lastUpdated"`
}
