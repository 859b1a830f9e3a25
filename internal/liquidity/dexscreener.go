package liquidity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
)

// HTTPGetter is the outbound transport used to reach the pair data source.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Pair is one tradable market backing a token.
type Pair struct {
	DexID        string
	PairAddress  string
	LiquidityUSD decimal.Decimal
}

// Client fetches market pairs for a token from the pair data source.
type Client struct {
	baseURL string
	http    HTTPGetter
}

// NewClient creates a pair data client.
func NewClient(baseURL string, getter HTTPGetter) *Client {
	return &Client{baseURL: baseURL, http: getter}
}

// Pairs returns the tradable pairs for a mint. A nil/empty result means the
// data source has no record of any market for the token.
func (c *Client) Pairs(ctx context.Context, mint string) ([]Pair, error) {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, mint)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("pair request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading pair response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pair source HTTP %d: %s", resp.StatusCode, string(body))
	}

	var raw struct {
		Pairs []struct {
			DexID       string `json:"dexId"`
			PairAddress string `json:"pairAddress"`
			Liquidity   struct {
				USD json.Number `json:"usd"`
			} `json:"liquidity"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing pair response: %w", err)
	}

	pairs := make([]Pair, 0, len(raw.Pairs))
	for _, p := range raw.Pairs {
		liq := decimal.Zero
		if p.Liquidity.USD != "" {
			if d, err := decimal.NewFromString(p.Liquidity.USD.String()); err == nil {
				liq = d
			}
		}
		pairs = append(pairs, Pair{
			DexID:        p.DexID,
			PairAddress:  p.PairAddress,
			LiquidityUSD: liq,
		})
	}
	return pairs, nil
}
