package insight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/metrics"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

func sampleRow() scoring.ScoredRow {
	return scoring.ScoredRow{
		PerformanceRow: ingest.PerformanceRow{
			URL:                "https://example.com/guide",
			PositionCurrent:    12.4,
			PositionPrevious:   6.2,
			ClicksCurrent:      80,
			ClicksPrevious:     120,
			ImpressionsCurrent: 5400,
			CTRCurrent:         1.48,
		},
		PositionChange: -100,
		TrafficChange:  -33.3,
		Score:          88.5,
		FellFromPage1:  true,
		LosingTraffic:  true,
	}
}

func TestInsight(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Rewrite the intro and add an FAQ.  "}}]}`))
	}))
	defer srv.Close()

	m := metrics.New()
	c := New(Config{APIKey: "secret", BaseURL: srv.URL + "/"}, WithMetrics(m))

	text, err := c.Insight(context.Background(), sampleRow())
	if err != nil {
		t.Fatalf("Insight: %v", err)
	}
	if text != "Rewrite the intro and add an FAQ." {
		t.Errorf("text = %q", text)
	}
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != DefaultModel || got.MaxTokens != InsightMaxTokens || got.Temperature != DefaultTemperature {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Role != "user" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	prompt := got.Messages[1].Content
	for _, want := range []string{"https://example.com/guide", "Current position: 12.4", "Clicks: 80", "Impressions: 5400", "CTR: 1.5%", "fell off the first results page"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if v := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("insight", "ok")); v != 1 {
		t.Errorf("insight ok = %v, want 1", v)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key","code":"invalid_api_key"}}`, ErrInvalidCredentials},
		{"invalid key text on bad request", http.StatusBadRequest, `{"error":{"message":"invalid api key provided"}}`, ErrInvalidCredentials},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrUnavailable},
		{"server error", http.StatusBadGateway, `bad gateway`, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Insight(context.Background(), sampleRow())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Fatalf("error %v is not an APIError with status %d", err, tt.status)
			}
		})
	}
}

func TestUnclassifiedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"context length exceeded"}}`))
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Insight(context.Background(), sampleRow())
	if err == nil || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("error = %v, want a plain api error", err)
	}
	if FallbackMessage(err) != "AI analysis unavailable." {
		t.Errorf("fallback = %q", FallbackMessage(err))
	}
}

func TestNotConfigured(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	if c.Configured() {
		t.Fatal("client without key reports configured")
	}
	if _, err := c.Insight(context.Background(), sampleRow()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("error = %v", err)
	}
	if called {
		t.Fatal("request sent without an API key")
	}
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(Config{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Insight(context.Background(), sampleRow())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
}

func TestEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Insight(context.Background(), sampleRow()); err == nil {
		t.Fatal("expected error for a response without choices")
	}
}

func TestFallbackMessage(t *testing.T) {
	if msg := FallbackMessage(ErrNotConfigured); !strings.Contains(msg, "GROQ_API_KEY") {
		t.Errorf("not configured = %q", msg)
	}
	if msg := FallbackMessage(newAPIError(401, "", "")); !strings.Contains(msg, "rejected") {
		t.Errorf("invalid credentials = %q", msg)
	}
	if msg := FallbackMessage(ErrUnavailable); !strings.Contains(msg, "temporarily") {
		t.Errorf("unavailable = %q", msg)
	}
}
