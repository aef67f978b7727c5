package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/insight"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

// Config holds every setting of the service
type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DataDir           string `mapstructure:"DATA_DIR"`
	StatsRetainMonths int    `mapstructure:"STATS_RETAIN_MONTHS"`

	FetchTimeout      time.Duration `mapstructure:"FETCH_TIMEOUT"`
	CompetitorWorkers int           `mapstructure:"COMPETITOR_WORKERS"`
	MaxCompetitors    int           `mapstructure:"MAX_COMPETITORS"`
	MaxHeadings       int           `mapstructure:"MAX_HEADINGS"`
	MaxBodyBytes      int64         `mapstructure:"MAX_BODY_BYTES"`

	SearchTimeout    time.Duration `mapstructure:"SEARCH_TIMEOUT"`
	SearchMinResults int           `mapstructure:"SEARCH_MIN_RESULTS"`
	SearchMaxResults int           `mapstructure:"SEARCH_MAX_RESULTS"`

	GroqAPIKey  string        `mapstructure:"GROQ_API_KEY"`
	GroqBaseURL string        `mapstructure:"GROQ_BASE_URL"`
	GroqModel   string        `mapstructure:"GROQ_MODEL"`
	LLMTimeout  time.Duration `mapstructure:"LLM_TIMEOUT"`

	RateLimit       float64 `mapstructure:"RATE_LIMIT"`
	RateBurst       float64 `mapstructure:"RATE_BURST"`
	SessionCapacity int     `mapstructure:"SESSION_CAPACITY"`
	MaxUploadBytes  int64   `mapstructure:"MAX_UPLOAD_BYTES"`

	MinPosition     float64 `mapstructure:"MIN_POSITION"`
	MaxPosition     float64 `mapstructure:"MAX_POSITION"`
	MinTrafficRatio float64 `mapstructure:"MIN_TRAFFIC_RATIO"`
	WeightPosition  float64 `mapstructure:"WEIGHT_POSITION"`
	WeightTraffic   float64 `mapstructure:"WEIGHT_TRAFFIC"`
	WeightTrend     float64 `mapstructure:"WEIGHT_TREND"`
}

// LoadEnvFiles loads .env.development, falling back to .env, into the
// process environment. Variables already set win. It returns the file that
// was read, or "" when none exists.
func LoadEnvFiles() string {
	if err := godotenv.Load(".env.development"); err == nil {
		return ".env.development"
	}
	if err := godotenv.Load(); err == nil {
		return ".env"
	}
	return ""
}

// Load reads configuration from the environment on top of the defaults
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	a := analyzer.DefaultConfig()
	s := scoring.DefaultConfig()

	v.SetDefault("PORT", "8082")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("STATS_RETAIN_MONTHS", 12)

	v.SetDefault("FETCH_TIMEOUT", a.Timeout)
	v.SetDefault("COMPETITOR_WORKERS", a.Workers)
	v.SetDefault("MAX_COMPETITORS", a.MaxCompetitors)
	v.SetDefault("MAX_HEADINGS", a.MaxHeadings)
	v.SetDefault("MAX_BODY_BYTES", a.MaxBodyBytes)

	v.SetDefault("SEARCH_TIMEOUT", 10*time.Second)
	v.SetDefault("SEARCH_MIN_RESULTS", 5)
	v.SetDefault("SEARCH_MAX_RESULTS", 10)

	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_BASE_URL", insight.DefaultBaseURL)
	v.SetDefault("GROQ_MODEL", insight.DefaultModel)
	v.SetDefault("LLM_TIMEOUT", insight.DefaultTimeout)

	v.SetDefault("RATE_LIMIT", 2)
	v.SetDefault("RATE_BURST", 5)
	v.SetDefault("SESSION_CAPACITY", 256)
	v.SetDefault("MAX_UPLOAD_BYTES", 32<<20)

	v.SetDefault("MIN_POSITION", s.MinPosition)
	v.SetDefault("MAX_POSITION", s.MaxPosition)
	v.SetDefault("MIN_TRAFFIC_RATIO", s.MinTrafficRatio)
	v.SetDefault("WEIGHT_POSITION", s.Weights.Position)
	v.SetDefault("WEIGHT_TRAFFIC", s.Weights.Traffic)
	v.SetDefault("WEIGHT_TREND", s.Weights.Trend)
}

// Validate ensures all configuration values are coherent
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port cannot be empty"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir cannot be empty"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, errors.New("search timeout must be positive"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("llm timeout must be positive"))
	}
	if c.CompetitorWorkers <= 0 {
		errs = append(errs, errors.New("competitor workers must be positive"))
	}
	if c.MaxCompetitors <= 0 {
		errs = append(errs, errors.New("max competitors must be positive"))
	}
	if c.MaxHeadings <= 0 {
		errs = append(errs, errors.New("max headings must be positive"))
	}
	if c.MaxBodyBytes <= 0 || c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("body and upload limits must be positive"))
	}
	if c.SearchMinResults <= 0 || c.SearchMaxResults < c.SearchMinResults {
		errs = append(errs, fmt.Errorf("search results range %d-%d is invalid", c.SearchMinResults, c.SearchMaxResults))
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		errs = append(errs, errors.New("rate limit must be positive and burst at least 1"))
	}
	if c.SessionCapacity <= 0 {
		errs = append(errs, errors.New("session capacity must be positive"))
	}
	if c.StatsRetainMonths <= 0 {
		errs = append(errs, errors.New("stats retain months must be positive"))
	}
	if u, err := url.Parse(c.GroqBaseURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("groq base URL %q is invalid", c.GroqBaseURL))
	}
	if err := c.Scoring().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Scoring returns the scoring configuration with the overrides applied
func (c *Config) Scoring() scoring.Config {
	s := scoring.DefaultConfig()
	s.MinPosition = c.MinPosition
	s.MaxPosition = c.MaxPosition
	s.MinTrafficRatio = c.MinTrafficRatio
	s.Weights = scoring.Weights{
		Position: c.WeightPosition,
		Traffic:  c.WeightTraffic,
		Trend:    c.WeightTrend,
	}
	return s
}

// Analyzer returns the page analyzer limits
func (c *Config) Analyzer() analyzer.Config {
	return analyzer.Config{
		Timeout:        c.FetchTimeout,
		MaxHeadings:    c.MaxHeadings,
		Workers:        c.CompetitorWorkers,
		MaxCompetitors: c.MaxCompetitors,
		MaxBodyBytes:   c.MaxBodyBytes,
	}
}

// Insight returns the LLM client settings
func (c *Config) Insight() insight.Config {
	return insight.Config{
		APIKey:  c.GroqAPIKey,
		BaseURL: c.GroqBaseURL,
		Model:   c.GroqModel,
		Timeout: c.LLMTimeout,
	}
}
