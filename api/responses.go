package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

// errorResponse is the body of every failed request
type errorResponse struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Stage   string   `json:"stage,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

type resultsResponse struct {
	SessionID     string              `json:"session_id"`
	TrafficMetric string              `json:"traffic_metric"`
	TargetDomain  string              `json:"target_domain,omitempty"`
	Counts        countsResponse      `json:"counts"`
	Summary       scoring.Summary     `json:"summary"`
	Rows          []scoring.ScoredRow `json:"rows"`
}

type countsResponse struct {
	Input            int `json:"input"`
	InPositionWindow int `json:"in_position_window"`
	WithTraffic      int `json:"with_traffic"`
	Ranked           int `json:"ranked"`
}

type drillDownResponse struct {
	Index            int                  `json:"index"`
	Row              scoring.ScoredRow    `json:"row"`
	Page             analyzer.PageMetadata `json:"page"`
	InternalLinks    []scoring.LinkTarget `json:"internal_links"`
	Insight          string               `json:"insight"`
	InsightAvailable bool                 `json:"insight_available"`
}

type compareRequest struct {
	Keyword string `json:"keyword"`
	// ManualURLs is pasted text, one URL per line or comma separated
	ManualURLs string `json:"manual_urls"`
}

type compareResponse struct {
	NeedsManualURLs         bool                 `json:"needs_manual_urls"`
	Message                 string               `json:"message,omitempty"`
	Source                  string               `json:"source,omitempty"`
	Cached                  bool                 `json:"cached"`
	Comparison              *analyzer.Comparison `json:"comparison,omitempty"`
	InternalLinks           []scoring.LinkTarget `json:"internal_links,omitempty"`
	Recommendation          string               `json:"recommendation,omitempty"`
	RecommendationAvailable bool                 `json:"recommendation_available"`
}

func newResultsResponse(id, targetDomain string, set *scoring.RankedResultSet) resultsResponse {
	return resultsResponse{
		SessionID:     id,
		TrafficMetric: set.TrafficMetric,
		TargetDomain:  targetDomain,
		Counts: countsResponse{
			Input:            set.Input,
			InPositionWindow: set.InPositionWindow,
			WithTraffic:      set.WithTraffic,
			Ranked:           len(set.Rows),
		},
		Summary: set.Summary(),
		Rows:    set.Rows,
	}
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// respondAnalysisError maps ingestion and scoring failures to 400 and 422
// responses naming what went wrong.
func respondAnalysisError(c *gin.Context, err error) {
	var (
		missing *ingest.MissingColumnsError
		empty   *scoring.EmptyResultError
	)
	switch {
	case errors.As(err, &missing):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:   err.Error(),
			Kind:    "missing_columns",
			Missing: missing.Missing,
		})
	case errors.Is(err, ingest.ErrInputFormat):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "input_format"})
	case errors.As(err, &empty):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
			Error: err.Error(),
			Kind:  "empty_result",
			Stage: string(empty.Stage),
		})
	case errors.Is(err, ingest.ErrNoMatches):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
			Error: err.Error(),
			Kind:  "empty_result",
			Stage: "join",
		})
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
}
