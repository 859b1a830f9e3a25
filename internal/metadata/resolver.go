// Package metadata labels tokens with symbol, name and icon from a published
// token list.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/soltools/portfolio/internal/cache"
	"github.com/soltools/portfolio/internal/domain"
)

// HTTPGetter performs outbound GET requests.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Entry is one token-list record.
type Entry struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// Resolver fetches a token list once, persists it in the metadata cache
// category, and labels tokens by mint address.
type Resolver struct {
	getter  HTTPGetter
	store   *cache.Store
	listURL string

	mu    sync.Mutex
	index map[string]Entry
}

// NewResolver creates a Resolver over the given token-list URL.
func NewResolver(getter HTTPGetter, store *cache.Store, listURL string) *Resolver {
	return &Resolver{getter: getter, store: store, listURL: listURL}
}

// Label fills in symbol, name and icon for every token whose mint appears in
// the token list. Fields already set are left alone. The list is loaded
// lazily, cache first; a load failure leaves all tokens unlabeled.
func (r *Resolver) Label(ctx context.Context, tokens []domain.Token) error {
	index, err := r.load(ctx)
	if err != nil {
		return err
	}

	for i := range tokens {
		entry, ok := index[tokens[i].Mint]
		if !ok {
			continue
		}
		if tokens[i].Symbol == "" {
			tokens[i].Symbol = entry.Symbol
		}
		if tokens[i].Name == "" {
			tokens[i].Name = entry.Name
		}
		if tokens[i].Icon == "" {
			tokens[i].Icon = entry.LogoURI
		}
	}
	return nil
}

func (r *Resolver) load(ctx context.Context) (map[string]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index != nil {
		return r.index, nil
	}

	var entries []Entry
	if !r.store.Read(cache.CategoryMetadata, &entries) {
		fetched, err := r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		entries = fetched
		if err := r.store.Write(cache.CategoryMetadata, entries); err != nil {
			return nil, fmt.Errorf("persisting token list: %w", err)
		}
	}

	index := make(map[string]Entry, len(entries))
	for _, e := range entries {
		index[e.Address] = e
	}
	r.index = index
	return index, nil
}

func (r *Resolver) fetch(ctx context.Context) ([]Entry, error) {
	resp, err := r.getter.Get(ctx, r.listURL)
	if err != nil {
		return nil, fmt.Errorf("fetching token list: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token list: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token list returned HTTP %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("parsing token list: %w", err)
	}
	return entries, nil
}
