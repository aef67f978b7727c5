package search

import (
	"strings"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
)

// MaxManualURLs caps a pasted competitor list
const MaxManualURLs = 10

// ParseManualURLs reads competitor URLs pasted by the user, one per line or
// comma separated. Blank entries, entries without a host-like dot and
// duplicates are dropped.
func ParseManualURLs(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ','
	})

	seen := map[string]bool{}
	urls := []string{}
	for _, f := range fields {
		u := strings.TrimSpace(f)
		if u == "" || !strings.Contains(u, ".") || strings.ContainsAny(u, " \t") {
			continue
		}
		key := ingest.NormalizeURL(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		urls = append(urls, u)
		if len(urls) == MaxManualURLs {
			break
		}
	}
	return urls
}
