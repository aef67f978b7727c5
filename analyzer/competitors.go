package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FetchCompetitors fetches up to MaxCompetitors URLs with at most Workers
// requests in flight. Result i always belongs to urls[i]; one failed fetch
// only marks its own entry.
func (a *Analyzer) FetchCompetitors(ctx context.Context, urls []string, targetDomain string) []PageMetadata {
	if len(urls) > a.cfg.MaxCompetitors {
		urls = urls[:a.cfg.MaxCompetitors]
	}
	results := make([]PageMetadata, len(urls))

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = a.Fetch(ctx, u, targetDomain)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	a.logger.Info("competitor batch fetched",
		zap.Int("requested", len(urls)),
		zap.Int("failed", failed),
	)
	return results
}

// Compare averages the successful competitors and lists where the page
// falls behind them.
func Compare(page PageMetadata, competitors []PageMetadata) Comparison {
	cmp := Comparison{
		Page:        page,
		Competitors: competitors,
		Gaps:        []string{},
	}

	var words, h2, faqs, withSchema int
	for _, c := range competitors {
		if !c.Success {
			continue
		}
		cmp.Succeeded++
		words += c.WordCount
		h2 += c.H2Count
		faqs += c.FAQsCount
		if c.SchemasCount > 0 {
			withSchema++
		}
	}
	if cmp.Succeeded == 0 {
		cmp.Gaps = append(cmp.Gaps, "no competitor page could be analyzed")
		return cmp
	}

	n := float64(cmp.Succeeded)
	cmp.AvgWordCount = float64(words) / n
	cmp.AvgH2Count = float64(h2) / n
	cmp.AvgFAQCount = float64(faqs) / n
	cmp.SchemaRatio = float64(withSchema) / n

	if !page.Success {
		return cmp
	}
	if float64(page.WordCount) < 0.8*cmp.AvgWordCount {
		cmp.Gaps = append(cmp.Gaps, fmt.Sprintf("competitors average %.0f words, page has %d", cmp.AvgWordCount, page.WordCount))
	}
	if float64(page.H2Count) < cmp.AvgH2Count {
		cmp.Gaps = append(cmp.Gaps, fmt.Sprintf("competitors average %.1f H2 headings, page has %d", cmp.AvgH2Count, page.H2Count))
	}
	if cmp.AvgFAQCount > 0 && page.FAQsCount == 0 {
		cmp.Gaps = append(cmp.Gaps, fmt.Sprintf("competitors average %.1f FAQ entries, page has none", cmp.AvgFAQCount))
	}
	if cmp.SchemaRatio >= 0.5 && page.SchemasCount == 0 {
		cmp.Gaps = append(cmp.Gaps, fmt.Sprintf("%.0f%% of competitors use structured data, page has none", cmp.SchemaRatio*100))
	}
	return cmp
}
