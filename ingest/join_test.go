package ingest

import (
	"errors"
	"testing"
)

func TestJoin(t *testing.T) {
	primary := []PerformanceRow{
		{URL: "https://www.example.com/a/", Key: "example.com/a", PositionCurrent: 8, ClicksCurrent: 10},
		{URL: "https://example.com/b", Key: "example.com/b", PositionCurrent: 12},
		{URL: "https://example.com/c", PositionCurrent: 6},
	}
	secondary := []PerformanceRow{
		{URL: "example.com/a", Key: "example.com/a", SessionsCurrent: 50, SessionsPrevious: 70, BounceRate: 0.5, HasSessions: true},
		{URL: "example.com/a/", Key: "example.com/a", SessionsCurrent: 1, SessionsPrevious: 1, HasSessions: true},
		{URL: "http://example.com/c", SessionsCurrent: 5, SessionsPrevious: 9, HasSessions: true},
	}

	joined, err := Join(primary, secondary)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(joined) != 2 {
		t.Fatalf("joined = %d rows, want 2", len(joined))
	}

	a := joined[0]
	if a.SessionsCurrent != 50 || a.SessionsPrevious != 70 || a.BounceRate != 0.5 {
		t.Errorf("first analytics row should win, got %+v", a)
	}
	if !a.HasSessions || a.ClicksCurrent != 10 || a.PositionCurrent != 8 {
		t.Errorf("search fields should be kept, got %+v", a)
	}
	if cur, prev := a.Traffic(); cur != 50 || prev != 70 {
		t.Errorf("Traffic() = %v/%v, want sessions", cur, prev)
	}
	if joined[1].Key != "example.com/c" {
		t.Errorf("second key = %q, want example.com/c", joined[1].Key)
	}
}

func TestJoinNoMatches(t *testing.T) {
	primary := []PerformanceRow{{URL: "https://example.com/a", Key: "example.com/a"}}
	secondary := []PerformanceRow{{URL: "/other", Key: "/other"}}

	_, err := Join(primary, secondary)
	if !errors.Is(err, ErrNoMatches) {
		t.Fatalf("error = %v, want ErrNoMatches", err)
	}
}

func TestTrafficFallsBackToClicks(t *testing.T) {
	r := PerformanceRow{ClicksCurrent: 3, ClicksPrevious: 4}
	if cur, prev := r.Traffic(); cur != 3 || prev != 4 {
		t.Fatalf("Traffic() = %v/%v, want 3/4", cur, prev)
	}
	if r.TrafficMetric() != "clicks" {
		t.Fatalf("TrafficMetric() = %q", r.TrafficMetric())
	}
}

func TestJoinPathOnlyAnalytics(t *testing.T) {
	primary := []PerformanceRow{
		{URL: "https://example.com/"},
		{URL: "https://www.example.com/blog/a/", Key: "example.com/blog/a"},
		{URL: "https://example.com/blog/b", Key: "example.com/blog/b"},
	}
	secondary := []PerformanceRow{
		{URL: "/", SessionsCurrent: 90, HasSessions: true},
		{URL: "/blog/b/", Key: "/blog/b", SessionsCurrent: 40, HasSessions: true},
	}

	joined, err := Join(primary, secondary)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(joined) != 2 {
		t.Fatalf("joined = %+v", joined)
	}
	if joined[0].URL != "https://example.com/" || joined[0].SessionsCurrent != 90 {
		t.Errorf("homepage = %+v", joined[0])
	}
	if joined[1].URL != "https://example.com/blog/b" || joined[1].SessionsCurrent != 40 {
		t.Errorf("blog/b = %+v", joined[1])
	}
}
