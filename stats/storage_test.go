package stats

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStorage(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	t.Run("IncrementStats", func(t *testing.T) {
		storage.IncrementStats(Counts{AnalysisRuns: 1, EmptyResults: 2, FetchSuccesses: 3, FetchFailures: 4, InsightCalls: 5})
		stats := storage.GetCurrentStats()

		if stats.AnalysisRuns != 1 {
			t.Errorf("Expected 1 analysis run, got %d", stats.AnalysisRuns)
		}
		if stats.EmptyResults != 2 {
			t.Errorf("Expected 2 empty results, got %d", stats.EmptyResults)
		}
		if stats.FetchSuccesses != 3 || stats.FetchFailures != 4 {
			t.Errorf("Expected 3/4 fetches, got %d/%d", stats.FetchSuccesses, stats.FetchFailures)
		}
		if stats.InsightCalls != 5 {
			t.Errorf("Expected 5 insight calls, got %d", stats.InsightCalls)
		}
	})

	t.Run("RecordFetch", func(t *testing.T) {
		storage.RecordFetch(true)
		storage.RecordFetch(false)
		stats := storage.GetCurrentStats()
		if stats.FetchSuccesses != 4 || stats.FetchFailures != 5 {
			t.Errorf("Expected 4/5 fetches, got %d/%d", stats.FetchSuccesses, stats.FetchFailures)
		}
	})

	t.Run("Persistence", func(t *testing.T) {
		storage.requestWrite()
		time.Sleep(100 * time.Millisecond)

		storage2, err := NewStorage(tempDir, nil)
		if err != nil {
			t.Fatalf("Failed to create second storage: %v", err)
		}
		defer storage2.Shutdown()

		stats := storage2.GetCurrentStats()
		if stats.AnalysisRuns != 1 {
			t.Errorf("Expected 1 analysis run after reload, got %d", stats.AnalysisRuns)
		}
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		before := storage.GetCurrentStats()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					storage.IncrementStats(Counts{AnalysisRuns: 1, InsightCalls: 1})
					storage.GetCurrentStats()
				}
			}()
		}
		wg.Wait()

		stats := storage.GetCurrentStats()
		if got := stats.AnalysisRuns - before.AnalysisRuns; got != 1000 {
			t.Errorf("Expected 1000 new analysis runs, got %d", got)
		}
		if got := stats.InsightCalls - before.InsightCalls; got != 1000 {
			t.Errorf("Expected 1000 new insight calls, got %d", got)
		}
	})
}

func TestShutdownPersists(t *testing.T) {
	tempDir := t.TempDir()

	storage, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	storage.IncrementStats(Counts{EmptyResults: 3})
	storage.Shutdown()
	storage.Shutdown()

	info, err := os.Stat(filepath.Join(tempDir, "stats.json"))
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Size() > 1024 {
		t.Errorf("File size too large: %d bytes", info.Size())
	}

	reloaded, err := NewStorage(tempDir, nil)
	if err != nil {
		t.Fatalf("Failed to reload storage: %v", err)
	}
	defer reloaded.Shutdown()
	if got := reloaded.GetCurrentStats().EmptyResults; got != 3 {
		t.Errorf("Expected 3 empty results after shutdown, got %d", got)
	}
}

func TestCleanup(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Shutdown()

	// Month arithmetic from the 31st must not skip February
	storage.now = func() time.Time { return time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC) }
	storage.mutex.Lock()
	storage.months["2023-12"] = &MonthlyStats{Counts: Counts{AnalysisRuns: 100}}
	storage.months["2024-01"] = &MonthlyStats{Counts: Counts{AnalysisRuns: 50}}
	storage.months["2024-02"] = &MonthlyStats{Counts: Counts{AnalysisRuns: 7}}
	storage.mutex.Unlock()
	storage.IncrementStats(Counts{AnalysisRuns: 1})

	storage.Cleanup(1)

	if _, exists := storage.GetMonthlyStats("2024-01"); exists {
		t.Error("Old stats should have been cleaned up")
	}
	if stats, exists := storage.GetMonthlyStats("2024-02"); !exists || stats.AnalysisRuns != 7 {
		t.Error("Last month should be retained")
	}
	if months := storage.GetAllMonths(); len(months) != 2 || months[0] != "2024-03" {
		t.Errorf("Unexpected months %v", months)
	}
	if got := storage.GetCurrentStats().AnalysisRuns; got != 1 {
		t.Errorf("Expected 1 analysis run this month, got %d", got)
	}
}

func TestNilStorage(t *testing.T) {
	var storage *Storage
	storage.IncrementStats(Counts{AnalysisRuns: 1})
	storage.RecordFetch(true)
	storage.Shutdown()
}
