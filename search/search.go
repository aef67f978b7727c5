package search

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/metrics"
)

const (
	DefaultMinResults = 5
	DefaultMaxResults = 10
)

var (
	// ErrNoResults means no backend produced a single usable result and the
	// caller should ask for competitor URLs by hand.
	ErrNoResults = errors.New("no search results")

	ErrEmptyKeyword = errors.New("keyword is empty")
)

// Result is one organic search result
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Searcher returns organic results for a keyword
type Searcher interface {
	Name() string
	Search(ctx context.Context, keyword string) ([]Result, error)
}

// Chain tries backends in order until one returns at least MinResults.
// It never invents results: when every backend fails the answer is empty.
type Chain struct {
	Backends   []Searcher
	MinResults int
	MaxResults int
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// NewChain creates a chain with the default thresholds
func NewChain(backends ...Searcher) *Chain {
	return &Chain{
		Backends:   backends,
		MinResults: DefaultMinResults,
		MaxResults: DefaultMaxResults,
	}
}

func (c *Chain) Name() string {
	return "chain"
}

// Search returns the first backend answer with at least MinResults entries,
// otherwise the largest non-empty answer seen, otherwise ErrNoResults.
func (c *Chain) Search(ctx context.Context, keyword string) ([]Result, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minResults, maxResults := c.MinResults, c.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	var best []Result
	for _, b := range c.Backends {
		if err := ctx.Err(); err != nil {
			return best, err
		}

		results, err := b.Search(ctx, keyword)
		if err != nil {
			c.Metrics.IncSearch(b.Name(), "error")
			logger.Warn("search backend failed",
				zap.String("backend", b.Name()),
				zap.String("keyword", keyword),
				zap.Error(err),
			)
			continue
		}

		results = Dedupe(results, maxResults)
		switch {
		case len(results) == 0:
			c.Metrics.IncSearch(b.Name(), "empty")
		case len(results) < minResults:
			c.Metrics.IncSearch(b.Name(), "few")
		default:
			c.Metrics.IncSearch(b.Name(), "ok")
		}
		logger.Debug("search backend answered",
			zap.String("backend", b.Name()),
			zap.Int("results", len(results)),
		)

		if len(results) >= minResults && len(results) > 0 {
			return results, nil
		}
		if len(results) > len(best) {
			best = results
		}
	}

	if len(best) == 0 {
		return []Result{}, ErrNoResults
	}
	return best, nil
}

// Dedupe drops empty and repeated URLs, comparing normalized forms, and
// keeps at most limit results.
func Dedupe(results []Result, limit int) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		r.URL = strings.TrimSpace(r.URL)
		key := ingest.NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// URLs projects results to their URLs
func URLs(results []Result) []string {
	urls := make([]string, len(results))
	for i, r := range results {
		urls[i] = r.URL
	}
	return urls
}
