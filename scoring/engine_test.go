package scoring

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/seo-optimizer/refresh-prioritizer/ingest"
)

func row(url string, cur, prev, clicksCur, clicksPrev float64) ingest.PerformanceRow {
	return ingest.PerformanceRow{
		URL:              url,
		Key:              ingest.NormalizeURL(url),
		PositionCurrent:  cur,
		PositionPrevious: prev,
		ClicksCurrent:    clicksCur,
		ClicksPrevious:   clicksPrev,
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestRankFellFromPage1(t *testing.T) {
	engine := New(DefaultConfig())

	set, err := engine.Rank([]ingest.PerformanceRow{row("https://example.com/a", 12, 8, 40, 100)})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(set.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(set.Rows))
	}

	r := set.Rows[0]
	if !r.FellFromPage1 {
		t.Error("row should be flagged as fallen from page 1")
	}
	if r.PositionChange >= 0 {
		t.Errorf("position change = %v, want negative for a degradation", r.PositionChange)
	}
	if !approx(r.PositionChange, -50) || !approx(r.TrafficChange, -60) {
		t.Errorf("changes = %v/%v, want -50/-60", r.PositionChange, r.TrafficChange)
	}
	if r.TrendScore != 0 {
		t.Errorf("trend score = %v, want 0 after clipping", r.TrendScore)
	}

	composite := 0.5*(8.0/15.0*100) + 0.3*50
	want := composite + 30 + 15 + 10
	if !approx(r.Score, want) {
		t.Errorf("score = %v, want %v", r.Score, want)
	}
	if len(r.Bonuses) != 3 || r.Bonuses[0] != BonusFellFromPage1 {
		t.Errorf("bonuses = %v", r.Bonuses)
	}
}

func TestRankPositionWindow(t *testing.T) {
	var rows []ingest.PerformanceRow
	for pos := 0; pos <= 25; pos++ {
		rows = append(rows, row(fmt.Sprintf("/page-%d", pos), float64(pos), float64(pos), 100, 100))
	}
	rows = append(rows, row("/edge-low", 4.99, 5, 100, 100), row("/edge-high", 20.01, 20, 100, 100))

	set, err := New(DefaultConfig()).Rank(rows)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(set.Rows) != 16 {
		t.Fatalf("rows = %d, want 16 (positions 5 through 20)", len(set.Rows))
	}
	for _, r := range set.Rows {
		if r.PositionCurrent < 5 || r.PositionCurrent > 20 {
			t.Errorf("%s has position %v outside the window", r.URL, r.PositionCurrent)
		}
		if r.TrafficScore != 50 {
			t.Errorf("%s traffic score = %v, want 50 for identical traffic", r.URL, r.TrafficScore)
		}
	}
	if set.Input != len(rows) || set.InPositionWindow != 16 || set.WithTraffic != 16 {
		t.Errorf("stage counts = %d/%d/%d", set.Input, set.InPositionWindow, set.WithTraffic)
	}
}

func TestRankEmptyStages(t *testing.T) {
	tests := []struct {
		name  string
		rows  []ingest.PerformanceRow
		stage Stage
	}{
		{name: "no rows", rows: nil, stage: StageInput},
		{
			name: "all outside window",
			rows: []ingest.PerformanceRow{
				row("/a", 1, 2, 10, 10),
				row("/b", 25, 30, 10, 10),
				row("/c", 0, 8, 10, 10),
			},
			stage: StagePositionWindow,
		},
		{
			name:  "no traffic",
			rows:  []ingest.PerformanceRow{row("/a", 8, 8, 0, 10), row("/b", 9, 9, 0, 0)},
			stage: StageTraffic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := New(DefaultConfig()).Rank(tt.rows)
			if set != nil {
				t.Fatalf("expected no result set, got %d rows", len(set.Rows))
			}
			var empty *EmptyResultError
			if !errors.As(err, &empty) {
				t.Fatalf("error = %v, want *EmptyResultError", err)
			}
			if empty.Stage != tt.stage {
				t.Errorf("stage = %q, want %q", empty.Stage, tt.stage)
			}
			if !errors.Is(err, ErrEmptyResult) {
				t.Error("error should match ErrEmptyResult")
			}
		})
	}
}

func TestRankPositionWindowMessage(t *testing.T) {
	_, err := New(DefaultConfig()).Rank([]ingest.PerformanceRow{row("/a", 30, 30, 1, 1)})
	if err == nil || err.Error() != "no URLs in position window 5-20" {
		t.Fatalf("error = %v", err)
	}
}

func TestRankTrafficThreshold(t *testing.T) {
	rows := []ingest.PerformanceRow{
		row("/a", 8, 8, 100, 100),
		row("/b", 9, 9, 200, 200),
		row("/c", 10, 10, 20, 20),
		row("/d", 11, 11, 0, 50),
	}

	set, err := New(DefaultConfig()).Rank(rows)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// mean of non-zero rows is 320/3, threshold 32
	if set.WithTraffic != 2 {
		t.Fatalf("rows with traffic = %d, want 2", set.WithTraffic)
	}
	for _, r := range set.Rows {
		if r.URL == "/c" || r.URL == "/d" {
			t.Errorf("%s should have been filtered", r.URL)
		}
		if r.TrafficScore < 0 || r.TrafficScore > 100 {
			t.Errorf("%s traffic score %v out of range", r.URL, r.TrafficScore)
		}
	}
}

func TestRankUsesSessionsWhenJoined(t *testing.T) {
	r := row("/a", 8, 8, 1, 1)
	r.HasSessions = true
	r.SessionsCurrent = 50
	r.SessionsPrevious = 100

	set, err := New(DefaultConfig()).Rank([]ingest.PerformanceRow{r})
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if set.TrafficMetric != "sessions" {
		t.Errorf("traffic metric = %q, want sessions", set.TrafficMetric)
	}
	if !approx(set.Rows[0].TrafficChange, -50) || !set.Rows[0].LosingTraffic {
		t.Errorf("traffic change = %v, want -50 from sessions", set.Rows[0].TrafficChange)
	}
}

func TestTrendScoreClipped(t *testing.T) {
	rows := []ingest.PerformanceRow{
		row("/soaring", 5, 20, 100000, 1),
		row("/collapsing", 20, 1, 1, 100000),
		row("/no-history", 10, 0, 50, 0),
	}

	cfg := DefaultConfig()
	cfg.MinTrafficRatio = 0

	set, err := New(cfg).Rank(rows)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(set.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(set.Rows))
	}
	byURL := map[string]ScoredRow{}
	for _, r := range set.Rows {
		byURL[r.URL] = r
		if r.TrendScore < 0 || r.TrendScore > 100 {
			t.Errorf("%s trend score %v out of range", r.URL, r.TrendScore)
		}
	}

	if byURL["/soaring"].TrendScore != 100 {
		t.Errorf("soaring trend = %v, want 100", byURL["/soaring"].TrendScore)
	}
	if byURL["/collapsing"].TrendScore != 0 {
		t.Errorf("collapsing trend = %v, want 0", byURL["/collapsing"].TrendScore)
	}
	if r := byURL["/no-history"]; r.PositionChange != 0 || r.TrafficChange != 0 || r.TrendScore != 50 {
		t.Errorf("no-history row = %+v, want zero changes and neutral trend", r)
	}
}

func TestRankDeterministicOrder(t *testing.T) {
	rows := []ingest.PerformanceRow{
		row("/b", 10, 10, 100, 100),
		row("/a", 10, 10, 100, 100),
		row("/c", 6, 12, 300, 100),
		row("/d", 15, 9, 80, 200),
	}
	reversed := make([]ingest.PerformanceRow, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}

	first, err := New(DefaultConfig()).Rank(rows)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	second, err := New(DefaultConfig()).Rank(reversed)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}

	for i := range first.Rows {
		if first.Rows[i].URL != second.Rows[i].URL {
			t.Fatalf("order differs at %d: %s vs %s", i, first.Rows[i].URL, second.Rows[i].URL)
		}
		if i > 0 && first.Rows[i].Score > first.Rows[i-1].Score {
			t.Fatalf("rows not sorted by score at %d", i)
		}
	}
}

func TestSortTieBreak(t *testing.T) {
	rows := []ScoredRow{
		{PerformanceRow: ingest.PerformanceRow{URL: "/z", Key: "/z"}, Score: 40},
		{PerformanceRow: ingest.PerformanceRow{URL: "/y", Key: "/y"}, Score: 40, LosingTraffic: true},
		{PerformanceRow: ingest.PerformanceRow{URL: "/b", Key: "/b"}, Score: 40},
		{PerformanceRow: ingest.PerformanceRow{URL: "/top", Key: "/top"}, Score: 90},
	}
	sortRows(rows)

	want := []string{"/top", "/y", "/b", "/z"}
	for i, url := range want {
		if rows[i].URL != url {
			t.Fatalf("position %d = %s, want %s", i, rows[i].URL, url)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.MaxPosition = 3
	cfg.Weights = Weights{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
