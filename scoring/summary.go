package scoring

// Summary is the headline view of a ranked result set
type Summary struct {
	Total         int     `json:"total"`
	FellFromPage1 int     `json:"fell_from_page1"`
	LosingTraffic int     `json:"losing_traffic"`
	AverageScore  float64 `json:"average_score"`
	TopScore      float64 `json:"top_score"`
	TopURL        string  `json:"top_url,omitempty"`
}

// Summary counts urgent rows and averages the scores of the set
func (s *RankedResultSet) Summary() Summary {
	var sum Summary
	if s == nil || len(s.Rows) == 0 {
		return sum
	}

	var total float64
	for _, r := range s.Rows {
		if r.FellFromPage1 {
			sum.FellFromPage1++
		}
		if r.LosingTraffic {
			sum.LosingTraffic++
		}
		total += r.Score
	}
	sum.Total = len(s.Rows)
	sum.AverageScore = total / float64(len(s.Rows))
	sum.TopScore = s.Rows[0].Score
	sum.TopURL = s.Rows[0].URL
	return sum
}
