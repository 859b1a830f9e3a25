package cache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category names for the two persisted caches.
const (
	CategoryPrices   = "prices"
	CategoryMetadata = "metadata"
)

// envelope is the on-disk shape of one cache category: a single timestamp
// covering the whole data map.
type envelope struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Store persists timestamped JSON blobs per category under a directory.
// Writes are whole-category overwrites; concurrent writers race and the last
// writer wins, which is acceptable because cached facts are idempotent.
type Store struct {
	dir    string
	expiry map[string]time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewStore creates a Store rooted at dir. Each category expires after its
// configured duration; a category with no configured expiry never expires.
func NewStore(dir string, expiry map[string]time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &Store{
		dir:    dir,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

// Read loads a category into dest. It returns false when the category is
// missing, unreadable, corrupt, or past its expiry — callers cannot tell
// these apart, since all of them require a re-fetch.
func (s *Store) Read(category string, dest any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(category))
	if err != nil {
		return false
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("corrupt cache file, treating as miss", "category", category, "error", err)
		return false
	}

	if ttl := s.expiry[category]; ttl > 0 && s.now().Sub(env.Timestamp) >= ttl {
		return false
	}

	if err := json.Unmarshal(env.Data, dest); err != nil {
		slog.Warn("corrupt cache data, treating as miss", "category", category, "error", err)
		return false
	}
	return true
}

// Write overwrites a category with the given data, stamped with the current
// time.
func (s *Store) Write(category string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling cache data for %s: %w", category, err)
	}
	raw, err := json.Marshal(envelope{Timestamp: s.now(), Data: payload})
	if err != nil {
		return fmt.Errorf("marshaling cache envelope for %s: %w", category, err)
	}
	if err := os.WriteFile(s.path(category), raw, 0o644); err != nil {
		return fmt.Errorf("writing cache file for %s: %w", category, err)
	}
	return nil
}

func (s *Store) path(category string) string {
	return filepath.Join(s.dir, category+".json")
}
