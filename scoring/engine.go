package scoring

import (
	"math"
	"sort"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
)

// Bonus names recorded on a ScoredRow
const (
	BonusFellFromPage1 = "fell_from_page1"
	BonusRankDrop      = "rank_drop"
	BonusTrafficDrop   = "traffic_drop"
)

// ScoredRow is a performance row with its derived metrics and score
type ScoredRow struct {
	ingest.PerformanceRow

	PositionChange float64 `json:"position_change"` // percent, positive means improved
	TrafficChange  float64 `json:"traffic_change"`  // percent, negative means declined

	PositionScore float64 `json:"position_score"`
	TrafficScore  float64 `json:"traffic_score"`
	TrendScore    float64 `json:"trend_score"`
	Score         float64 `json:"score"`

	FellFromPage1 bool     `json:"fell_from_page1"`
	LosingTraffic bool     `json:"losing_traffic"`
	Bonuses       []string `json:"bonuses,omitempty"`
}

// CurrentTraffic returns the current value of the row's traffic metric
func (r ScoredRow) CurrentTraffic() float64 {
	cur, _ := r.Traffic()
	return cur
}

// RankedResultSet holds every scored row of one analysis run, best
// opportunity first, together with the row counts after each stage.
type RankedResultSet struct {
	Rows          []ScoredRow `json:"rows"`
	TrafficMetric string      `json:"traffic_metric"`

	Input            int `json:"input"`
	InPositionWindow int `json:"in_position_window"`
	WithTraffic      int `json:"with_traffic"`
}

// Engine ranks performance rows by refresh opportunity
type Engine struct {
	Config Config
}

// New creates an Engine with the given configuration
func New(cfg Config) *Engine {
	return &Engine{Config: cfg}
}

// Rank filters, scores and orders rows. Every stage that leaves nothing
// behind returns an *EmptyResultError naming that stage.
func (e *Engine) Rank(rows []ingest.PerformanceRow) (*RankedResultSet, error) {
	cfg := e.Config
	if len(rows) == 0 {
		return nil, emptyResult(StageInput, "no URLs to score")
	}

	set := &RankedResultSet{
		Input:         len(rows),
		TrafficMetric: rows[0].TrafficMetric(),
	}

	// Position window
	windowed := make([]ingest.PerformanceRow, 0, len(rows))
	for _, r := range rows {
		if r.PositionCurrent > 0 && r.PositionCurrent >= cfg.MinPosition && r.PositionCurrent <= cfg.MaxPosition {
			windowed = append(windowed, r)
		}
	}
	set.InPositionWindow = len(windowed)
	if len(windowed) == 0 {
		return nil, emptyResult(StagePositionWindow, "no URLs in position window %g-%g", cfg.MinPosition, cfg.MaxPosition)
	}

	// Minimum traffic relative to the mean of rows that have any traffic
	withTraffic := make([]ingest.PerformanceRow, 0, len(windowed))
	var total float64
	for _, r := range windowed {
		if cur, _ := r.Traffic(); cur > 0 {
			withTraffic = append(withTraffic, r)
			total += cur
		}
	}
	if len(withTraffic) == 0 {
		return nil, emptyResult(StageTraffic, "no URLs with sufficient traffic: every URL in the position window has zero %s", set.TrafficMetric)
	}
	threshold := cfg.MinTrafficRatio * total / float64(len(withTraffic))

	kept := withTraffic[:0]
	for _, r := range withTraffic {
		if cur, _ := r.Traffic(); cur >= threshold {
			kept = append(kept, r)
		}
	}
	set.WithTraffic = len(kept)
	if len(kept) == 0 {
		return nil, emptyResult(StageTraffic, "no URLs with sufficient traffic (minimum %.1f %s)", threshold, set.TrafficMetric)
	}

	minTraffic, maxTraffic := math.Inf(1), math.Inf(-1)
	for _, r := range kept {
		cur, _ := r.Traffic()
		minTraffic = math.Min(minTraffic, cur)
		maxTraffic = math.Max(maxTraffic, cur)
	}

	set.Rows = make([]ScoredRow, 0, len(kept))
	for _, r := range kept {
		set.Rows = append(set.Rows, e.score(r, minTraffic, maxTraffic))
	}
	sortRows(set.Rows)
	return set, nil
}

func (e *Engine) score(r ingest.PerformanceRow, minTraffic, maxTraffic float64) ScoredRow {
	cfg := e.Config
	cur, prev := r.Traffic()

	s := ScoredRow{
		PerformanceRow: r,
		PositionChange: percentChange(r.PositionPrevious-r.PositionCurrent, r.PositionPrevious),
		TrafficChange:  percentChange(cur-prev, prev),
	}
	s.LosingTraffic = s.TrafficChange < 0

	s.PositionScore = clip((cfg.MaxPosition - r.PositionCurrent) / (cfg.MaxPosition - cfg.MinPosition) * 100)
	if maxTraffic > minTraffic {
		s.TrafficScore = (cur - minTraffic) / (maxTraffic - minTraffic) * 100
	} else {
		s.TrafficScore = 50
	}
	s.TrendScore = clip(50 + cfg.TrendPositionFactor*s.PositionChange + cfg.TrendTrafficFactor*s.TrafficChange)

	s.Score = cfg.Weights.Position*s.PositionScore +
		cfg.Weights.Traffic*s.TrafficScore +
		cfg.Weights.Trend*s.TrendScore

	if r.PositionPrevious > 0 && r.PositionPrevious <= cfg.Page1Boundary && r.PositionCurrent > cfg.Page1Boundary {
		s.FellFromPage1 = true
		s.Score += cfg.Page1Bonus
		s.Bonuses = append(s.Bonuses, BonusFellFromPage1)
	}
	if r.PositionPrevious > 0 && r.PositionCurrent-r.PositionPrevious > cfg.RankDropThreshold {
		s.Score += cfg.RankDropBonus
		s.Bonuses = append(s.Bonuses, BonusRankDrop)
	}
	if s.TrafficChange < cfg.TrafficDropThreshold {
		s.Score += cfg.TrafficDropBonus
		s.Bonuses = append(s.Bonuses, BonusTrafficDrop)
	}
	return s
}

// sortRows orders by score descending, then losing traffic first, then by
// normalized URL so identical input always yields identical output.
func sortRows(rows []ScoredRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.LosingTraffic != b.LosingTraffic {
			return a.LosingTraffic
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.URL < b.URL
	})
}

func percentChange(delta, base float64) float64 {
	if base == 0 {
		return 0
	}
	return delta / base * 100
}

func clip(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
