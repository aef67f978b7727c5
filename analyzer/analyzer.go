package analyzer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/seo-optimizer/refresh-prioritizer/metrics"
	"github.com/seo-optimizer/refresh-prioritizer/stats"
)

// Config bounds the work done per page and per competitor batch
type Config struct {
	Timeout        time.Duration
	MaxHeadings    int
	Workers        int
	MaxCompetitors int
	MaxBodyBytes   int64
}

// DefaultConfig returns limits suited to an interactive request path
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxHeadings:    20,
		Workers:        5,
		MaxCompetitors: 10,
		MaxBodyBytes:   5 << 20,
	}
}

// Analyzer fetches pages and extracts their on-page SEO signals
type Analyzer struct {
	client  *http.Client
	cfg     Config
	agents  *UserAgents
	metrics *metrics.Metrics
	stats   *stats.Storage
	logger  *zap.Logger
}

// Option customizes an Analyzer
type Option func(*Analyzer)

// WithHTTPClient replaces the pooled client, mostly for tests
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithStats(s *stats.Storage) Option {
	return func(a *Analyzer) { a.stats = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func WithUserAgents(u *UserAgents) Option {
	return func(a *Analyzer) { a.agents = u }
}

// New creates an Analyzer. Zero fields of cfg take their default.
func New(cfg Config, opts ...Option) *Analyzer {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxHeadings <= 0 {
		cfg.MaxHeadings = def.MaxHeadings
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.MaxCompetitors <= 0 {
		cfg.MaxCompetitors = def.MaxCompetitors
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}

	// Pooled keep-alive connections; competitor batches hit many hosts at once
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	a := &Analyzer{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cfg:    cfg,
		agents: NewUserAgents(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.Named("analyzer")
	return a
}

// Config returns the effective limits
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Fetch retrieves rawURL and extracts its metadata. It never fails: any
// problem yields a record with Success false, zero counts and the reason.
// Internal links are counted against targetDomain, or against the page's
// own host when targetDomain is empty.
func (a *Analyzer) Fetch(ctx context.Context, rawURL, targetDomain string) PageMetadata {
	start := time.Now()
	target := withScheme(rawURL)

	doc, status, err := a.fetchDocument(ctx, target)
	if err != nil {
		kind := kindOf(err)
		a.metrics.ObserveFetch(string(kind), time.Since(start))
		a.stats.RecordFetch(false)
		a.logger.Warn("page fetch failed",
			zap.String("url", target),
			zap.String("kind", string(kind)),
			zap.Int("status", status),
			zap.Error(err),
		)
		return PageMetadata{
			URL:        target,
			Error:      err.Error(),
			ErrorKind:  kind,
			StatusCode: status,
		}
	}

	if targetDomain == "" {
		targetDomain = hostOf(target)
	}
	meta := Extract(doc, targetDomain, a.cfg.MaxHeadings)
	meta.URL = target
	meta.StatusCode = status
	meta.Success = true

	a.metrics.ObserveFetch("ok", time.Since(start))
	a.stats.RecordFetch(true)
	a.logger.Debug("page analyzed",
		zap.String("url", target),
		zap.Int("words", meta.WordCount),
		zap.Int("schemas", meta.SchemasCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return meta
}

func (a *Analyzer) fetchDocument(ctx context.Context, target string) (*goquery.Document, int, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &FetchError{Kind: KindOther, Err: err}
	}
	req.Header.Set("User-Agent", a.agents.Next())
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, &FetchError{Kind: classifyError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &FetchError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, resp.StatusCode, &FetchError{
			Kind:       KindContentType,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("content type %q is not HTML", contentType),
		}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, a.cfg.MaxBodyBytes), contentType)
	if err != nil {
		return nil, resp.StatusCode, &FetchError{Kind: KindOther, Err: fmt.Errorf("failed to decode body: %w", err)}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, resp.StatusCode, &FetchError{Kind: classifyError(err), Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}
	return doc, resp.StatusCode, nil
}

func withScheme(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return "https://" + strings.TrimPrefix(s, "//")
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
