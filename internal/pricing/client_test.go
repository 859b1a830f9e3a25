package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// directGetter satisfies HTTPGetter with a plain client, bypassing rotation.
type directGetter struct{}

func (directGetter) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

func TestFetchPricesFlatShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list := r.URL.Query().Get("list_address")
		if list != "MintA,MintB" {
			t.Errorf("list_address = %q, want MintA,MintB", list)
		}
		w.Write([]byte(`{"prices":{"MintA":1.5,"MintB":0.0001}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, directGetter{})
	pm, err := client.FetchPrices(context.Background(), []string{"MintA", "MintB"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}

	if pm.Source != "prices" {
		t.Errorf("Source = %q, want prices", pm.Source)
	}
	if !pm.Prices["MintA"].Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("MintA = %s, want 1.5", pm.Prices["MintA"])
	}
	if !pm.Prices["MintB"].Equal(decimal.RequireFromString("0.0001")) {
		t.Errorf("MintB = %s, want 0.0001", pm.Prices["MintB"])
	}
}

func TestFetchPricesNestedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"MintA":{"price":42},"MintB":{"price":0},"MintC":{}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, directGetter{})
	pm, err := client.FetchPrices(context.Background(), []string{"MintA", "MintB", "MintC"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}

	if pm.Source != "data" {
		t.Errorf("Source = %q, want data", pm.Source)
	}
	if !pm.Prices["MintA"].Equal(decimal.NewFromInt(42)) {
		t.Errorf("MintA = %s, want 42", pm.Prices["MintA"])
	}
	// Zero and absent prices are never inserted.
	if _, ok := pm.Prices["MintB"]; ok {
		t.Error("zero price must not be inserted")
	}
	if _, ok := pm.Prices["MintC"]; ok {
		t.Error("missing price must not be inserted")
	}
}

func TestFetchPricesUnrecognizedShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[1,2,3]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, directGetter{})
	pm, err := client.FetchPrices(context.Background(), []string{"MintA"})
	if err != nil {
		t.Fatalf("unrecognized shape must not be an error, got: %v", err)
	}
	if pm.Source != "unknown" || len(pm.Prices) != 0 {
		t.Errorf("got %+v, want empty unknown-source map", pm)
	}
}

func TestFetchPricesMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{broken`))
	}))
	defer server.Close()

	client := NewClient(server.URL, directGetter{})
	if _, err := client.FetchPrices(context.Background(), []string{"MintA"}); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestFetchPricesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, directGetter{})
	_, err := client.FetchPrices(context.Background(), []string{"MintA"})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected HTTP 502 error, got %v", err)
	}
}
