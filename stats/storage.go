package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	monthLayout = "2006-01"

	// flushInterval is the periodic save cadence of the background writer
	flushInterval = 5 * time.Minute
	// minWriteGap rate limits saves requested by counter updates
	minWriteGap = time.Minute
)

// Counts are the usage counters tracked per month
type Counts struct {
	AnalysisRuns   int `json:"analysis_runs"`
	EmptyResults   int `json:"empty_results"`
	FetchSuccesses int `json:"fetch_successes"`
	FetchFailures  int `json:"fetch_failures"`
	InsightCalls   int `json:"insight_calls"`
}

// Add accumulates delta into c
func (c *Counts) Add(delta Counts) {
	c.AnalysisRuns += delta.AnalysisRuns
	c.EmptyResults += delta.EmptyResults
	c.FetchSuccesses += delta.FetchSuccesses
	c.FetchFailures += delta.FetchFailures
	c.InsightCalls += delta.InsightCalls
}

// MonthlyStats are the counters of one calendar month
type MonthlyStats struct {
	Counts
	LastUpdated time.Time `json:"last_updated"`
}

// Storage keeps monthly usage counters in memory and persists them to a
// JSON file in the data directory. A nil *Storage ignores every update.
type Storage struct {
	mutex     sync.RWMutex
	months    map[string]*MonthlyStats // key: "YYYY-MM"
	filePath  string
	lastWrite time.Time
	now       func() time.Time

	writeRequests chan struct{}
	stop          chan struct{}
	done          chan struct{}
	once          sync.Once
	logger        *zap.Logger
}

// NewStorage loads dataDir/stats.json, if any, and starts the background
// writer. Call Shutdown to flush and stop it.
func NewStorage(dataDir string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		months:        make(map[string]*MonthlyStats),
		filePath:      filepath.Join(dataDir, "stats.json"),
		now:           time.Now,
		writeRequests: make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Named("stats"),
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.writeLoop()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return json.Unmarshal(data, &s.months)
}

// save writes the counters through a temporary file and a rename
func (s *Storage) save() error {
	s.mutex.RLock()
	data, err := json.MarshalIndent(s.months, "", "  ")
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) flush() {
	if err := s.save(); err != nil {
		s.logger.Error("failed to persist statistics", zap.String("path", s.filePath), zap.Error(err))
	}
}

func (s *Storage) writeLoop() {
	defer close(s.done)

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeRequests:
			s.flush()
		case <-ticker.C:
			s.flush()
		case <-s.stop:
			s.flush()
			return
		}
	}
}

// Shutdown stops the background writer after a final save. It is safe to
// call more than once.
func (s *Storage) Shutdown() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Storage) requestWrite() {
	select {
	case s.writeRequests <- struct{}{}:
	default:
	}
}

func monthKey(t time.Time) string {
	return t.Format(monthLayout)
}

// IncrementStats adds delta to the counters of the current month
func (s *Storage) IncrementStats(delta Counts) {
	if s == nil {
		return
	}
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := monthKey(now)
	month, ok := s.months[key]
	if !ok {
		month = &MonthlyStats{}
		s.months[key] = month
	}
	month.Add(delta)
	month.LastUpdated = now

	if now.Sub(s.lastWrite) > minWriteGap {
		s.requestWrite()
		s.lastWrite = now
	}
}

// RecordFetch counts one page fetch outcome
func (s *Storage) RecordFetch(success bool) {
	if success {
		s.IncrementStats(Counts{FetchSuccesses: 1})
		return
	}
	s.IncrementStats(Counts{FetchFailures: 1})
}

// GetCurrentStats returns the counters of the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(monthKey(s.now()))
	return stats
}

// GetMonthlyStats returns the counters of a "YYYY-MM" month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, ok := s.months[yearMonth]; ok {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.months))
	for month := range s.months {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Cleanup keeps the current month and the retainMonths months before it
// and drops everything older.
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 0 {
		retainMonths = 0
	}
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	oldest := monthKey(first.AddDate(0, -retainMonths, 0))

	s.mutex.Lock()
	var removed []string
	for key := range s.months {
		if key < oldest {
			delete(s.months, key)
			removed = append(removed, key)
		}
	}
	s.mutex.Unlock()

	if len(removed) > 0 {
		sort.Strings(removed)
		s.requestWrite()
		s.logger.Info("removed old statistics", zap.Strings("months", removed))
	}
}
