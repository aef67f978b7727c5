package session

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/seo-optimizer/refresh-prioritizer/scoring"
)

// DefaultCapacity is the number of sessions kept when none is configured
const DefaultCapacity = 256

// Store keeps the most recently used sessions in memory
type Store struct {
	cache *lru.Cache[string, *State]
}

// NewStore creates a store holding at most capacity sessions. The least
// recently used session is evicted first.
func NewStore(capacity int, logger *zap.Logger) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.NewWithEvict(capacity, func(id string, _ *State) {
		logger.Debug("session evicted", zap.String("session", id))
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Store{cache: cache}, nil
}

// Create starts a session for a fresh analysis run
func (s *Store) Create(ranked *scoring.RankedResultSet, targetDomain string) *State {
	st := newState(uuid.New().String(), ranked, targetDomain)
	s.cache.Add(st.ID, st)
	return st
}

func (s *Store) Get(id string) (*State, bool) {
	return s.cache.Get(id)
}

func (s *Store) Delete(id string) {
	s.cache.Remove(id)
}

func (s *Store) Len() int {
	return s.cache.Len()
}
