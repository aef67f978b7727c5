package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const bingURL = "https://www.bing.com/search"

// Bing scrapes Bing result pages with a colly collector
type Bing struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Count     int
	transport http.RoundTripper
}

// NewBing creates a backend whose requests give up after timeout
func NewBing(timeout time.Duration, userAgent string) *Bing {
	return &Bing{
		BaseURL:   bingURL,
		UserAgent: userAgent,
		Timeout:   timeout,
		Count:     DefaultMaxResults,
		transport: http.DefaultTransport,
	}
}

func (b *Bing) Name() string {
	return "bing"
}

func (b *Bing) Search(ctx context.Context, keyword string) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if b.UserAgent != "" {
		opts = append(opts, colly.UserAgent(b.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(b.Timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: b.transport})

	var (
		results  []Result
		fetchErr error
	)
	c.OnHTML("li.b_algo h2 a", func(e *colly.HTMLElement) {
		if target := unwrapBing(e.Request.AbsoluteURL(e.Attr("href"))); target != "" {
			results = append(results, Result{URL: target, Title: strings.TrimSpace(e.Text)})
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = fmt.Errorf("bing request failed (status %d): %w", status, err)
	})

	endpoint := b.BaseURL + "?q=" + url.QueryEscape(keyword)
	if b.Count > 0 {
		endpoint += "&count=" + strconv.Itoa(b.Count)
	}
	if err := c.Visit(endpoint); err != nil && fetchErr == nil {
		fetchErr = fmt.Errorf("bing request failed: %w", err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	return results, nil
}

// unwrapBing resolves /ck/a tracking links, whose u parameter carries the
// target as "a1" followed by unpadded URL-safe base64.
func unwrapBing(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "bing.com") {
		if u.Path != "/ck/a" {
			return ""
		}
		encoded := strings.TrimPrefix(u.Query().Get("u"), "a1")
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return ""
		}
		if u, err = url.Parse(string(decoded)); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

// contextTransport ties collector requests to the caller's context
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req.WithContext(t.ctx))
}
