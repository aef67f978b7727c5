package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
	"github.com/seo-optimizer/refresh-prioritizer/session"
	"github.com/seo-optimizer/refresh-prioritizer/stats"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatistics(c *gin.Context) {
	if s.Stats == nil {
		respondError(c, http.StatusServiceUnavailable, "usage statistics are disabled")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current": s.Stats.GetCurrentStats(),
		"months":  s.Stats.GetAllMonths(),
	})
}

// handleAnalyze ranks an uploaded search performance export, optionally
// joined with an analytics export, and opens a session on the result.
func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	primaryFile, err := c.FormFile("primary")
	if err != nil {
		s.Metrics.IncAnalysis("input_error")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(c, http.StatusBadRequest, "a search performance export is required in the \"primary\" field")
		return
	}

	rows, err := loadUpload(primaryFile, ingest.LoadPrimary)
	if err != nil {
		s.analysisFailed(c, fmt.Errorf("primary export: %w", err))
		return
	}

	if secondaryFile, err := c.FormFile("secondary"); err == nil {
		traffic, err := loadUpload(secondaryFile, ingest.LoadSecondary)
		if err != nil {
			s.analysisFailed(c, fmt.Errorf("analytics export: %w", err))
			return
		}
		if rows, err = ingest.Join(rows, traffic); err != nil {
			s.analysisFailed(c, err)
			return
		}
	}

	set, err := s.Engine.Rank(rows)
	if err != nil {
		s.analysisFailed(c, err)
		return
	}

	domain := targetDomain(c.PostForm("domain"))
	st := s.Sessions.Create(set, domain)

	s.Metrics.IncAnalysis("ok")
	s.Stats.IncrementStats(stats.Counts{AnalysisRuns: 1})
	s.Logger.Info("analysis completed",
		zap.String("session", st.ID),
		zap.Int("input", set.Input),
		zap.Int("ranked", len(set.Rows)),
		zap.String("traffic_metric", set.TrafficMetric),
	)

	c.JSON(http.StatusOK, newResultsResponse(st.ID, domain, set))
}

func (s *Server) analysisFailed(c *gin.Context, err error) {
	outcome := "input_error"
	delta := stats.Counts{AnalysisRuns: 1}
	if errors.Is(err, scoring.ErrEmptyResult) || errors.Is(err, ingest.ErrNoMatches) {
		outcome = "empty"
		delta.EmptyResults = 1
	}
	s.Metrics.IncAnalysis(outcome)
	s.Stats.IncrementStats(delta)
	s.Logger.Info("analysis rejected", zap.String("outcome", outcome), zap.Error(err))
	respondAnalysisError(c, err)
}

func loadUpload(fh *multipart.FileHeader, load func(r io.Reader) ([]ingest.PerformanceRow, error)) ([]ingest.PerformanceRow, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return load(f)
}

// targetDomain reduces user input such as "https://www.example.com/blog"
// to the bare host used for internal link matching.
func targetDomain(raw string) string {
	host := ingest.NormalizeURL(raw)
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return host
}

func (s *Server) handleResults(c *gin.Context) {
	st, ok := s.session(c)
	if !ok {
		return
	}
	set := st.Ranked()
	if set == nil {
		respondError(c, http.StatusConflict, "session was reset, upload the exports again")
		return
	}
	c.JSON(http.StatusOK, newResultsResponse(st.ID, st.TargetDomain, set))
}

func (s *Server) handleReset(c *gin.Context) {
	st, ok := s.session(c)
	if !ok {
		return
	}
	st.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset", "session_id": st.ID})
}

// session resolves the :id parameter, answering 404 when it is unknown
func (s *Server) session(c *gin.Context) (*session.State, bool) {
	st, ok := s.Sessions.Get(c.Param("id"))
	if !ok {
		respondError(c, http.StatusNotFound, "session not found or expired")
		return nil, false
	}
	return st, true
}

// selectRow resolves :index and marks that row as selected
func (s *Server) selectRow(c *gin.Context, st *session.State) (scoring.ScoredRow, int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "row index must be an integer")
		return scoring.ScoredRow{}, 0, false
	}
	row, err := st.Select(index)
	switch {
	case errors.Is(err, session.ErrNoResults):
		respondError(c, http.StatusConflict, "session was reset, upload the exports again")
		return scoring.ScoredRow{}, 0, false
	case errors.Is(err, session.ErrOutOfRange):
		respondError(c, http.StatusNotFound, err.Error())
		return scoring.ScoredRow{}, 0, false
	case err != nil:
		respondError(c, http.StatusInternalServerError, err.Error())
		return scoring.ScoredRow{}, 0, false
	}
	return row, index, true
}
