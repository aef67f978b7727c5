package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8082" || cfg.GinMode != "release" {
		t.Errorf("server defaults = %q %q", cfg.Port, cfg.GinMode)
	}
	if cfg.FetchTimeout != 10*time.Second || cfg.CompetitorWorkers != 5 || cfg.MaxCompetitors != 10 {
		t.Errorf("analyzer defaults = %+v", cfg.Analyzer())
	}
	if cfg.SearchMinResults != 5 || cfg.SearchMaxResults != 10 {
		t.Errorf("search defaults = %d-%d", cfg.SearchMinResults, cfg.SearchMaxResults)
	}
	s := cfg.Scoring()
	if s.MinPosition != 5 || s.MaxPosition != 20 || s.Weights.Position != 0.5 {
		t.Errorf("scoring defaults = %+v", s)
	}
	if ic := cfg.Insight(); ic.Model != "llama-3.3-70b-versatile" || ic.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("insight defaults = %+v", ic)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("COMPETITOR_WORKERS", "8")
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("WEIGHT_TREND", "0.4")
	t.Setenv("MAX_POSITION", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.FetchTimeout != 3*time.Second || cfg.CompetitorWorkers != 8 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Insight().APIKey != "gsk_test" {
		t.Errorf("api key = %q", cfg.Insight().APIKey)
	}
	if s := cfg.Scoring(); s.Weights.Trend != 0.4 || s.MaxPosition != 30 {
		t.Errorf("scoring = %+v", s)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("MIN_POSITION", "25")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "max position") {
		t.Fatalf("expected position window error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty port", func(c *Config) { c.Port = "" }, "port"},
		{"zero workers", func(c *Config) { c.CompetitorWorkers = 0 }, "competitor workers"},
		{"negative timeout", func(c *Config) { c.FetchTimeout = -time.Second }, "fetch timeout"},
		{"inverted search range", func(c *Config) { c.SearchMaxResults = 2 }, "search results"},
		{"bad llm url", func(c *Config) { c.GroqBaseURL = "not a url" }, "groq base URL"},
		{"zero weights", func(c *Config) { c.WeightPosition, c.WeightTraffic, c.WeightTrend = 0, 0, 0 }, "weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
