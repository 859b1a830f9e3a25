package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// HTTPGetter is the outbound transport used to reach the price service.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// PriceMap is a normalized upstream price response. Source records which of
// the two upstream shapes produced it, isolating the rest of the pipeline
// from upstream format drift.
type PriceMap struct {
	Source string // "prices", "data", or "unknown"
	Prices map[string]decimal.Decimal
}

// Client fetches USD unit prices from the price service.
type Client struct {
	baseURL string
	http    HTTPGetter
}

// NewClient creates a price service client.
func NewClient(baseURL string, getter HTTPGetter) *Client {
	return &Client{baseURL: baseURL, http: getter}
}

// FetchPrices requests prices for the given mints in a single call, the
// comma-joined list carried as a query parameter. The caller is responsible
// for keeping the list within the upstream's batch limit.
func (c *Client) FetchPrices(ctx context.Context, mints []string) (PriceMap, error) {
	url := fmt.Sprintf("%s/prices?list_address=%s", c.baseURL, strings.Join(mints, ","))

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return PriceMap{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PriceMap{}, fmt.Errorf("reading price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return PriceMap{}, fmt.Errorf("price service HTTP %d: %s", resp.StatusCode, string(body))
	}

	return normalizePrices(body)
}

// normalizePrices accepts either of the two upstream response shapes:
// a flat "prices" map of mint to number, or a "data" map of mint to an
// object carrying a "price" field. An unrecognized shape is logged and
// yields zero new data, not an error. Zero and negative prices are dropped.
func normalizePrices(body []byte) (PriceMap, error) {
	var raw struct {
		Prices map[string]json.Number `json:"prices"`
		Data   map[string]struct {
			Price json.Number `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return PriceMap{}, fmt.Errorf("parsing price response: %w", err)
	}

	switch {
	case raw.Prices != nil:
		out := PriceMap{Source: "prices", Prices: make(map[string]decimal.Decimal, len(raw.Prices))}
		for mint, num := range raw.Prices {
			if p, ok := parsePositive(num); ok {
				out.Prices[mint] = p
			}
		}
		return out, nil

	case raw.Data != nil:
		out := PriceMap{Source: "data", Prices: make(map[string]decimal.Decimal, len(raw.Data))}
		for mint, entry := range raw.Data {
			if p, ok := parsePositive(entry.Price); ok {
				out.Prices[mint] = p
			}
		}
		return out, nil

	default:
		slog.Warn("unrecognized price response shape, treating as empty", "body", truncate(string(body), 200))
		return PriceMap{Source: "unknown", Prices: map[string]decimal.Decimal{}}, nil
	}
}

func parsePositive(num json.Number) (decimal.Decimal, bool) {
	if num == "" {
		return decimal.Decimal{}, false
	}
	p, err := decimal.NewFromString(num.String())
	if err != nil || !p.IsPositive() {
		return decimal.Decimal{}, false
	}
	return p, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
