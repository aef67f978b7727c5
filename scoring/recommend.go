package scoring

import "github.com/seo-optimizer/refresh-prioritizer/ingest"

// DefaultLinkTargets is the number of internal link targets recommended
// when the caller does not ask for a specific count.
const DefaultLinkTargets = 3

// LinkTarget is a ranked page suggested as an internal link target
type LinkTarget struct {
	URL      string  `json:"url"`
	Position float64 `json:"position"`
	Traffic  float64 `json:"traffic"`
	Score    float64 `json:"score"`
}

// RecommendInternalLinks returns the n best scored rows other than url.
// The set is not modified.
func RecommendInternalLinks(set *RankedResultSet, url string, n int) []LinkTarget {
	if set == nil {
		return nil
	}
	if n <= 0 {
		n = DefaultLinkTargets
	}

	exclude := ingest.NormalizeURL(url)
	targets := make([]LinkTarget, 0, n)
	for _, r := range set.Rows {
		if len(targets) == n {
			break
		}
		key := r.Key
		if key == "" {
			key = ingest.NormalizeURL(r.URL)
		}
		if key == exclude {
			continue
		}
		targets = append(targets, LinkTarget{
			URL:      r.URL,
			Position: r.PositionCurrent,
			Traffic:  r.CurrentTraffic(),
			Score:    r.Score,
		})
	}
	return targets
}
