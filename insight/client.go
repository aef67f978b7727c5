package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/metrics"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
	"github.com/seo-optimizer/refresh-prioritizer/stats"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.3
	DefaultTimeout     = 30 * time.Second

	InsightMaxTokens   = 150
	RecommendMaxTokens = 800

	maxResponseBytes = 1 << 20
)

// Config configures the completions client. An empty APIKey leaves the
// client usable but every call fails with ErrNotConfigured.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client asks a chat-completions endpoint for short SEO insights and
// refresh recommendations.
type Client struct {
	cfg     Config
	client  *http.Client
	metrics *metrics.Metrics
	stats   *stats.Storage
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

func WithStats(s *stats.Storage) Option {
	return func(cl *Client) { cl.stats = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// New creates a client, filling unset fields with the Groq defaults
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Insight returns a one or two sentence action for a ranked row
func (c *Client) Insight(ctx context.Context, row scoring.ScoredRow) (string, error) {
	prompt, err := renderInsight(row)
	if err != nil {
		return "", fmt.Errorf("render insight prompt: %w", err)
	}
	return c.complete(ctx, "insight", prompt, InsightMaxTokens)
}

// Recommend returns a structured refresh plan for a row using its page
// metadata, the competitor comparison when one exists, and internal link
// targets.
func (c *Client) Recommend(ctx context.Context, row scoring.ScoredRow, page analyzer.PageMetadata, cmp *analyzer.Comparison, links []scoring.LinkTarget) (string, error) {
	prompt, err := renderRecommend(row, page, cmp, links)
	if err != nil {
		return "", fmt.Errorf("render recommendation prompt: %w", err)
	}
	return c.complete(ctx, "recommend", prompt, RecommendMaxTokens)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, kind, prompt string, maxTokens int) (text string, err error) {
	start := time.Now()
	defer func() {
		c.metrics.IncLLM(kind, outcome(err))
		if err != nil {
			c.logger.Warn("llm request failed",
				zap.String("kind", kind),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			return
		}
		c.stats.IncrementStats(stats.Counts{InsightCalls: 1})
		c.logger.Debug("llm request completed",
			zap.String("kind", kind),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read completion response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return "", newAPIError(resp.StatusCode, apiErr.Error.Code, apiErr.Error.Message)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
