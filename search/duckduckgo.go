package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the HTML-only DuckDuckGo endpoint
type DuckDuckGo struct {
	BaseURL   string
	UserAgent string
	client    *http.Client
}

// NewDuckDuckGo creates a backend whose requests give up after timeout
func NewDuckDuckGo(timeout time.Duration, userAgent string) *DuckDuckGo {
	return &DuckDuckGo{
		BaseURL:   duckDuckGoURL,
		UserAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

func (d *DuckDuckGo) Search(ctx context.Context, keyword string) ([]Result, error) {
	endpoint := d.BaseURL + "?q=" + url.QueryEscape(keyword)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	var results []Result
	doc.Find("a.result__a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if target := unwrapDuckDuckGo(href); target != "" {
			results = append(results, Result{URL: target, Title: strings.TrimSpace(s.Text())})
		}
	})
	return results, nil
}

// unwrapDuckDuckGo resolves the /l/?uddg= redirect links of result anchors.
// Sponsored links and anything that is not an absolute http URL yield "".
func unwrapDuckDuckGo(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
		if u.Path == "/y.js" {
			return ""
		}
		href = u.Query().Get("uddg")
		if u, err = url.Parse(href); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
