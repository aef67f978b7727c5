package ingest

// PerformanceRow is one URL from a two-period performance export, optionally
// enriched with analytics sessions from a secondary export.
type PerformanceRow struct {
	URL string `json:"url"`
	// Key is the normalized URL used for joins and comparisons.
	Key string `json:"-"`

	PositionCurrent  float64 `json:"position_current"`
	PositionPrevious float64 `json:"position_previous"`

	ClicksCurrent  float64 `json:"clicks_current"`
	ClicksPrevious float64 `json:"clicks_previous"`

	SessionsCurrent  float64 `json:"sessions_current,omitempty"`
	SessionsPrevious float64 `json:"sessions_previous,omitempty"`
	HasSessions      bool    `json:"has_sessions"`

	ImpressionsCurrent float64 `json:"impressions_current"`
	CTRCurrent         float64 `json:"ctr_current"`

	BounceRate  float64 `json:"bounce_rate,omitempty"`
	AvgDuration float64 `json:"avg_duration,omitempty"`
}

// Traffic returns the primary traffic metric for the row: analytics sessions
// when the row carries them, search clicks otherwise.
func (r PerformanceRow) Traffic() (current, previous float64) {
	if r.HasSessions {
		return r.SessionsCurrent, r.SessionsPrevious
	}
	return r.ClicksCurrent, r.ClicksPrevious
}

// TrafficMetric names the metric returned by Traffic.
func (r PerformanceRow) TrafficMetric() string {
	if r.HasSessions {
		return "sessions"
	}
	return "clicks"
}
