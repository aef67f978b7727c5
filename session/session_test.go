package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

func rankedSet(urls ...string) *scoring.RankedResultSet {
	set := &scoring.RankedResultSet{TrafficMetric: "clicks"}
	for _, u := range urls {
		set.Rows = append(set.Rows, scoring.ScoredRow{PerformanceRow: ingest.PerformanceRow{URL: u}})
	}
	return set
}

func TestSelect(t *testing.T) {
	st := newState("id", rankedSet("https://example.com/a", "https://example.com/b"), "")

	if _, _, err := st.Selected(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("Selected before Select: %v", err)
	}
	if _, err := st.Select(2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Select(2): %v", err)
	}
	if _, err := st.Select(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Select(-1): %v", err)
	}

	row, err := st.Select(1)
	if err != nil || row.URL != "https://example.com/b" {
		t.Fatalf("Select(1) = %v, %v", row.URL, err)
	}
	row, idx, err := st.Selected()
	if err != nil || idx != 1 || row.URL != "https://example.com/b" {
		t.Fatalf("Selected = %v, %d, %v", row.URL, idx, err)
	}
}

func TestComparisonCache(t *testing.T) {
	st := newState("id", rankedSet("https://example.com/a"), "example.com")
	cmp := &analyzer.Comparison{Keyword: "Content Refresh"}

	st.CacheComparison("https://example.com/a/", "Content  Refresh", cmp)

	got, ok := st.Comparison("http://www.example.com/a", "content refresh")
	if !ok || got != cmp {
		t.Fatalf("cached comparison not found by equivalent URL and keyword")
	}
	if _, ok := st.Comparison("https://example.com/a", "other keyword"); ok {
		t.Fatal("comparison found for a different keyword")
	}
}

func TestReset(t *testing.T) {
	st := newState("id", rankedSet("https://example.com/a"), "")
	st.Select(0)
	st.CacheComparison("https://example.com/a", "kw", &analyzer.Comparison{})

	st.Reset()

	if st.Ranked() != nil {
		t.Error("results survived reset")
	}
	if _, ok := st.Comparison("https://example.com/a", "kw"); ok {
		t.Error("comparison survived reset")
	}
	if _, _, err := st.Selected(); !errors.Is(err, ErrNoResults) {
		t.Errorf("Selected after reset: %v", err)
	}
	if _, err := st.Select(0); !errors.Is(err, ErrNoResults) {
		t.Errorf("Select after reset: %v", err)
	}
}

func TestStore(t *testing.T) {
	store, err := NewStore(2, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	first := store.Create(rankedSet("https://example.com/a"), "example.com")
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Fatalf("session ID %q is not a UUID: %v", first.ID, err)
	}
	second := store.Create(rankedSet("https://example.com/b"), "")
	if first.ID == second.ID {
		t.Fatal("sessions share an ID")
	}

	// Touch first so second becomes the eviction candidate
	if got, ok := store.Get(first.ID); !ok || got != first {
		t.Fatal("first session not found")
	}
	third := store.Create(rankedSet("https://example.com/c"), "")

	if _, ok := store.Get(second.ID); ok {
		t.Error("least recently used session was not evicted")
	}
	if _, ok := store.Get(third.ID); !ok {
		t.Error("new session missing")
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}

	store.Delete(first.ID)
	if _, ok := store.Get(first.ID); ok {
		t.Error("deleted session still present")
	}
}
