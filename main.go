package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/api"
	"github.com/seo-optimizer/refresh-prioritizer/config"
	"github.com/seo-optimizer/refresh-prioritizer/insight"
	"github.com/seo-optimizer/refresh-prioritizer/logging"
	"github.com/seo-optimizer/refresh-prioritizer/metrics"
	"github.com/seo-optimizer/refresh-prioritizer/middleware"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
	"github.com/seo-optimizer/refresh-prioritizer/search"
	"github.com/seo-optimizer/refresh-prioritizer/session"
	"github.com/seo-optimizer/refresh-prioritizer/stats"
)

func main() {
	// Load environment configuration
	envFile := config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	logger, err := logging.New(cfg.GinMode, cfg.LogLevel)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	if envFile == "" {
		logger.Info("no .env file found, using environment variables")
	} else {
		logger.Info("loaded environment file", zap.String("file", envFile))
	}

	// Usage statistics
	usage, err := stats.NewStorage(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("could not open statistics storage", zap.Error(err))
	}
	usage.Cleanup(cfg.StatsRetainMonths)

	m := metrics.New()
	agents := analyzer.NewUserAgents()

	pages := analyzer.New(cfg.Analyzer(),
		analyzer.WithMetrics(m),
		analyzer.WithStats(usage),
		analyzer.WithLogger(logger),
		analyzer.WithUserAgents(agents),
	)

	searcher := search.NewChain(
		search.NewDuckDuckGo(cfg.SearchTimeout, agents.Next()),
		search.NewBing(cfg.SearchTimeout, agents.Next()),
	)
	searcher.MinResults = cfg.SearchMinResults
	searcher.MaxResults = cfg.SearchMaxResults
	searcher.Metrics = m
	searcher.Logger = logger.Named("search")

	advisor := insight.New(cfg.Insight(),
		insight.WithMetrics(m),
		insight.WithStats(usage),
		insight.WithLogger(logger.Named("insight")),
	)
	if !advisor.Configured() {
		logger.Warn("GROQ_API_KEY is not set, insights will use fallback text")
	}

	sessions, err := session.NewStore(cfg.SessionCapacity, logger.Named("session"))
	if err != nil {
		logger.Fatal("could not create session store", zap.Error(err))
	}

	server := api.NewServer(api.Config{
		Addr:           ":" + cfg.Port,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, api.Deps{
		Engine:      scoring.New(cfg.Scoring()),
		Analyzer:    pages,
		Searcher:    searcher,
		Advisor:     advisor,
		Sessions:    sessions,
		Stats:       usage,
		Metrics:     m,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		Logger:      logger.Named("api"),
	})

	// Graceful shutdown
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", "http://localhost:"+cfg.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	usage.Shutdown()

	logger.Info("server exiting")
}
