package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/analyzer"
	"github.com/seo-optimizer/refresh-prioritizer/insight"
	"github.com/seo-optimizer/refresh-prioritizer/scoring"
	"github.com/seo-optimizer/refresh-prioritizer/search"
)

// handleDrillDown selects one ranked row and returns its page metadata,
// internal link targets and a short insight.
func (s *Server) handleDrillDown(c *gin.Context) {
	st, ok := s.session(c)
	if !ok {
		return
	}
	row, index, ok := s.selectRow(c, st)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	page := s.Analyzer.Fetch(ctx, row.URL, st.TargetDomain)
	links := scoring.RecommendInternalLinks(st.Ranked(), row.URL, scoring.DefaultLinkTargets)

	resp := drillDownResponse{
		Index:         index,
		Row:           row,
		Page:          page,
		InternalLinks: links,
	}
	resp.Insight, resp.InsightAvailable = s.advise(row.URL, func() (string, error) {
		return s.Advisor.Insight(ctx, row)
	})

	c.JSON(http.StatusOK, resp)
}

// handleCompare compares the selected page with the pages ranking for a
// keyword, or with URLs pasted by the user when search comes back empty.
func (s *Server) handleCompare(c *gin.Context) {
	st, ok := s.session(c)
	if !ok {
		return
	}
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" && strings.TrimSpace(req.ManualURLs) == "" {
		respondError(c, http.StatusBadRequest, "a keyword or a list of competitor URLs is required")
		return
	}
	row, _, ok := s.selectRow(c, st)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	resp := compareResponse{}

	var urls []string
	switch {
	case strings.TrimSpace(req.ManualURLs) != "":
		urls = search.ParseManualURLs(req.ManualURLs)
		if len(urls) == 0 {
			respondError(c, http.StatusBadRequest, "no valid URLs found in the pasted list")
			return
		}
		resp.Source = "manual"
	default:
		if cmp, ok := st.Comparison(row.URL, req.Keyword); ok {
			resp.Source = "search"
			resp.Cached = true
			resp.Comparison = cmp
			break
		}
		results, err := s.Searcher.Search(ctx, req.Keyword)
		if errors.Is(err, search.ErrNoResults) || (err == nil && len(results) == 0) {
			c.JSON(http.StatusOK, compareResponse{
				NeedsManualURLs: true,
				Message:         "no search results found for \"" + req.Keyword + "\", paste competitor URLs instead",
			})
			return
		}
		if err != nil {
			s.Logger.Warn("competitor search failed", zap.String("keyword", req.Keyword), zap.Error(err))
			respondError(c, http.StatusBadGateway, "competitor search failed")
			return
		}
		urls = search.URLs(results)
		resp.Source = "search"
	}

	if resp.Comparison == nil {
		page := s.Analyzer.Fetch(ctx, row.URL, st.TargetDomain)
		// Competitor internal links are counted against each page's own host
		competitors := s.Analyzer.FetchCompetitors(ctx, urls, "")
		cmp := analyzer.Compare(page, competitors)
		cmp.Keyword = req.Keyword
		if resp.Source == "search" {
			st.CacheComparison(row.URL, req.Keyword, &cmp)
		}
		resp.Comparison = &cmp
	}

	resp.InternalLinks = scoring.RecommendInternalLinks(st.Ranked(), row.URL, scoring.DefaultLinkTargets)
	resp.Recommendation, resp.RecommendationAvailable = s.advise(row.URL, func() (string, error) {
		return s.Advisor.Recommend(ctx, row, resp.Comparison.Page, resp.Comparison, resp.InternalLinks)
	})

	c.JSON(http.StatusOK, resp)
}

// advise runs an LLM call and substitutes the fallback text on failure
func (s *Server) advise(url string, call func() (string, error)) (string, bool) {
	if s.Advisor == nil {
		return insight.FallbackMessage(insight.ErrNotConfigured), false
	}
	text, err := call()
	if err != nil {
		s.Logger.Debug("advice unavailable", zap.String("url", url), zap.Error(err))
		return insight.FallbackMessage(err), false
	}
	return text, true
}
