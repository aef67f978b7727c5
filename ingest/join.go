package ingest

import "strings"

// Join combines a search performance export with an analytics export on the
// normalized URL. Analytics exports that list bare paths match on the path
// of the search URL. Only URLs present in both survive; the first analytics
// row wins when a key repeats.
func Join(primary, secondary []PerformanceRow) ([]PerformanceRow, error) {
	index := make(map[string]PerformanceRow, len(secondary))
	for _, s := range secondary {
		key := s.Key
		if key == "" {
			key = NormalizeURL(s.URL)
		}
		if _, seen := index[key]; !seen {
			index[key] = s
		}
	}

	joined := make([]PerformanceRow, 0, len(primary))
	for _, p := range primary {
		if p.Key == "" {
			p.Key = NormalizeURL(p.URL)
		}
		s, ok := index[p.Key]
		if !ok {
			s, ok = index[pathOf(p.Key)]
		}
		if !ok {
			continue
		}
		p.SessionsCurrent = s.SessionsCurrent
		p.SessionsPrevious = s.SessionsPrevious
		p.HasSessions = true
		p.BounceRate = s.BounceRate
		p.AvgDuration = s.AvgDuration
		joined = append(joined, p)
	}
	if len(joined) == 0 {
		return nil, ErrNoMatches
	}
	return joined, nil
}

// pathOf returns the path of a normalized URL key, "/" for a bare host
func pathOf(key string) string {
	if strings.HasPrefix(key, "/") {
		return key
	}
	if i := strings.Index(key, "/"); i >= 0 {
		return key[i:]
	}
	return "/"
}
