package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	monthPrefix  = regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]* `)
	yearFragment = regexp.MustCompile(`^\d{3}`)

	urlPrefixes = []string{"https://", "http://", "www."}
)

// CleanNumber coerces a loosely formatted spreadsheet value into a float.
// Percent signs, thousands separators and whitespace are stripped; anything
// still unparsable counts as zero.
func CleanNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case uint:
		return float64(n)
	case uint64:
		return float64(n)
	case string:
		s := strings.ReplaceAll(n, "%", "")
		s = strings.ReplaceAll(s, ",", "")
		s = strings.Join(strings.Fields(s), "")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return finite(f)
	default:
		return 0
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// NormalizeURL reduces a URL to the key used to match rows across exports:
// lower case, no scheme, no leading "www.", no trailing slash. A bare root
// path stays "/".
func NormalizeURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	root := strings.HasPrefix(s, "/")
	for {
		next := strings.TrimSpace(s)
		for _, p := range urlPrefixes {
			next = strings.TrimPrefix(next, p)
		}
		next = strings.TrimRight(next, "/")
		if next == s {
			break
		}
		s = next
	}
	if s == "" && root {
		return "/"
	}
	return s
}

// IsAggregateRow reports whether the first cell of a row marks a totals row
// or is empty.
func IsAggregateRow(first string) bool {
	s := strings.ToLower(strings.TrimSpace(first))
	return s == "" || s == "total" || strings.Contains(s, "grand total")
}

// LooksLikeURL reports whether the first cell of a row holds a URL or path
// rather than a date label or a change row.
func LooksLikeURL(first string) bool {
	s := strings.TrimSpace(first)
	if s == "" || isPeriodLabel(s) {
		return false
	}
	return strings.Contains(s, "/") || strings.HasPrefix(strings.ToLower(s), "http")
}

func isPeriodLabel(s string) bool {
	return monthPrefix.MatchString(s) ||
		yearFragment.MatchString(s) ||
		strings.Contains(strings.ToLower(s), "% change")
}
