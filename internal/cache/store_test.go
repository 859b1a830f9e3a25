package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), map[string]time.Duration{CategoryPrices: ttl})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestReadWriteRoundtrip(t *testing.T) {
	s := newTestStore(t, time.Minute)

	in := map[string]float64{"MintA": 1.5, "MintB": 0.002}
	if err := s.Write(CategoryPrices, in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var out map[string]float64
	if !s.Read(CategoryPrices, &out) {
		t.Fatal("expected cache hit after write")
	}
	if out["MintA"] != 1.5 || out["MintB"] != 0.002 {
		t.Errorf("read back %v, want %v", out, in)
	}
}

func TestReadMissingCategory(t *testing.T) {
	s := newTestStore(t, time.Minute)

	var out map[string]float64
	if s.Read(CategoryPrices, &out) {
		t.Error("expected miss for never-written category")
	}
}

func TestExpiryBoundary(t *testing.T) {
	s := newTestStore(t, time.Minute)

	if err := s.Write(CategoryPrices, map[string]float64{"M": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	base := time.Now()

	// Just inside the window: hit.
	s.now = func() time.Time { return base.Add(59 * time.Second) }
	var out map[string]float64
	if !s.Read(CategoryPrices, &out) {
		t.Error("expected hit before expiry")
	}

	// At and past the window: miss.
	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if s.Read(CategoryPrices, &out) {
		t.Error("expected miss at/after expiry")
	}
}

func TestCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, map[string]time.Duration{CategoryPrices: time.Minute})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "prices.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	var out map[string]float64
	if s.Read(CategoryPrices, &out) {
		t.Error("expected miss for corrupt cache file")
	}
}

func TestWriteOverwritesWholeCategory(t *testing.T) {
	s := newTestStore(t, time.Minute)

	if err := s.Write(CategoryPrices, map[string]float64{"Old": 1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write(CategoryPrices, map[string]float64{"New": 2}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var out map[string]float64
	if !s.Read(CategoryPrices, &out) {
		t.Fatal("expected hit")
	}
	if _, ok := out["Old"]; ok {
		t.Error("old entry survived a whole-category overwrite")
	}
	if out["New"] != 2 {
		t.Errorf("out = %v, want only New=2", out)
	}
}

func TestNoExpiryConfigured(t *testing.T) {
	s, err := NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Write(CategoryMetadata, map[string]string{"M": "x"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	var out map[string]string
	if !s.Read(CategoryMetadata, &out) {
		t.Error("category without configured expiry should never expire")
	}
}
