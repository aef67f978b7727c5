package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/metrics"
	"github.com/seo-optimizer/refresh-prioritizer/middleware"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
	"github.com/seo-optimizer/refresh-prioritizer/search"
	"github.com/seo-optimizer/refresh-prioritizer/session"
	"github.com/seo-optimizer/refresh-prioritizer/stats"
)

// DefaultMaxUploadBytes bounds a multipart upload when none is configured
const DefaultMaxUploadBytes = 32 << 20

// PageAnalyzer fetches the metadata of a page and of its competitors
type PageAnalyzer interface {
	Fetch(ctx context.Context, rawURL, targetDomain string) analyzer.PageMetadata
	FetchCompetitors(ctx context.Context, urls []string, targetDomain string) []analyzer.PageMetadata
}

// Advisor writes the insight and recommendation texts
type Advisor interface {
	Insight(ctx context.Context, row scoring.ScoredRow) (string, error)
	Recommend(ctx context.Context, row scoring.ScoredRow, page analyzer.PageMetadata, cmp *analyzer.Comparison, links []scoring.LinkTarget) (string, error)
}

// Deps are the collaborators the handlers use. Metrics, Stats and
// RateLimiter are optional.
type Deps struct {
	Engine      *scoring.Engine
	Analyzer    PageAnalyzer
	Searcher    search.Searcher
	Advisor     Advisor
	Sessions    *session.Store
	Stats       *stats.Storage
	Metrics     *metrics.Metrics
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// Config holds the HTTP server settings
type Config struct {
	Addr           string
	MaxUploadBytes int64
}

// Server holds the dependencies for the HTTP server
type Server struct {
	Deps
	cfg        Config
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg Config, deps Deps) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Server{Deps: deps, cfg: cfg}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler(s.Logger))
	r.Use(middleware.Logger(s.Logger))
	r.Use(middleware.Metrics(s.Metrics))
	r.Use(middleware.CORS())

	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}

	api := r.Group("/api")
	if s.RateLimiter != nil {
		api.Use(s.RateLimiter.RateLimit())
	}
	{
		api.GET("/health", s.handleHealth)
		api.POST("/analyze", s.handleAnalyze)
		api.GET("/statistics", s.handleStatistics)

		sessions := api.Group("/sessions/:id")
		sessions.GET("", s.handleResults)
		sessions.POST("/reset", s.handleReset)
		sessions.GET("/urls/:index", s.handleDrillDown)
		sessions.POST("/urls/:index/compare", s.handleCompare)
	}
	return r
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
