package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

var (
	ErrNoResults   = errors.New("session has no results")
	ErrOutOfRange  = errors.New("row index out of range")
	ErrNoSelection = errors.New("no row selected")
)

// State is the result of one analysis run together with what the user has
// drilled into since. It is safe for concurrent use.
type State struct {
	ID           string
	CreatedAt    time.Time
	TargetDomain string

	mu          sync.RWMutex
	ranked      *scoring.RankedResultSet
	selected    int
	competitors map[string]*analyzer.Comparison
}

func newState(id string, ranked *scoring.RankedResultSet, targetDomain string) *State {
	return &State{
		ID:           id,
		CreatedAt:    time.Now(),
		TargetDomain: targetDomain,
		ranked:       ranked,
		selected:     -1,
		competitors:  map[string]*analyzer.Comparison{},
	}
}

// Ranked returns the ranked rows, nil after Reset
func (s *State) Ranked() *scoring.RankedResultSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranked
}

// Select marks row i as the one being inspected
func (s *State) Select(i int) (scoring.ScoredRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ranked == nil {
		return scoring.ScoredRow{}, ErrNoResults
	}
	if i < 0 || i >= len(s.ranked.Rows) {
		return scoring.ScoredRow{}, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(s.ranked.Rows))
	}
	s.selected = i
	return s.ranked.Rows[i], nil
}

// Selected returns the selected row and its index
func (s *State) Selected() (scoring.ScoredRow, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ranked == nil {
		return scoring.ScoredRow{}, -1, ErrNoResults
	}
	if s.selected < 0 {
		return scoring.ScoredRow{}, -1, ErrNoSelection
	}
	return s.ranked.Rows[s.selected], s.selected, nil
}

// CacheComparison stores the competitor comparison of a URL for a keyword
func (s *State) CacheComparison(url, keyword string, cmp *analyzer.Comparison) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitors[comparisonKey(url, keyword)] = cmp
}

// Comparison returns a previously cached comparison
func (s *State) Comparison(url, keyword string) (*analyzer.Comparison, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cmp, ok := s.competitors[comparisonKey(url, keyword)]
	return cmp, ok
}

// Reset drops the results, the selection and every cached comparison
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranked = nil
	s.selected = -1
	s.competitors = map[string]*analyzer.Comparison{}
}

func comparisonKey(url, keyword string) string {
	return ingest.NormalizeURL(url) + "\x00" + strings.ToLower(strings.Join(strings.Fields(keyword), " "))
}
