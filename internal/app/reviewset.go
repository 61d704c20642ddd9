package app

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"guest_reviews/internal/domain"
)

// ReviewSet owns the in-memory canonical reviews. Readers get copies; writers
// go through ReplaceApplied and Apply, each of which bumps Version once.
type ReviewSet struct {
	mu    sync.RWMutex
	items []domain.CanonicalReview
	index map[int64]int
	epoch string
	rev   uint64
}

func NewReviewSet() *ReviewSet {
	return &ReviewSet{index: map[int64]int{}, epoch: uuid.NewString()}
}

// ReplaceApplied swaps in rs with ds already overlaid, under one write and
// one version bump, so no reader sees the new set before reconciliation. The
// first occurrence of a duplicate id wins.
func (s *ReviewSet) ReplaceApplied(rs []domain.CanonicalReview, ds domain.Decisions) {
	items := make([]domain.CanonicalReview, 0, len(rs))
	index := make(map[int64]int, len(rs))
	for _, r := range rs {
		if _, dup := index[r.ID]; dup {
			log.Warn().Int64("id", r.ID).Str("channel", string(r.SourceChannel)).Msg("duplicate review id dropped")
			continue
		}
		d, ok := ds.Lookup(r.ID)
		r.Apply(d, ok)
		index[r.ID] = len(items)
		items = append(items, r)
	}

	s.mu.Lock()
	s.items, s.index = items, index
	s.rev++
	s.mu.Unlock()
}

// Apply overlays decisions onto every review.
func (s *ReviewSet) Apply(ds domain.Decisions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		d, ok := ds.Lookup(s.items[i].ID)
		s.items[i].Apply(d, ok)
	}
	s.rev++
}

func (s *ReviewSet) Has(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

func (s *ReviewSet) Get(id int64) (domain.CanonicalReview, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.CanonicalReview{}, false
	}
	return s.items[i], true
}

func (s *ReviewSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a private copy in insertion order.
func (s *ReviewSet) Snapshot() []domain.CanonicalReview {
	out, _ := s.View()
	return out
}

// View returns a snapshot together with the version it was taken at.
func (s *ReviewSet) View() ([]domain.CanonicalReview, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CanonicalReview, len(s.items))
	copy(out, s.items)
	return out, s.versionLocked()
}

// Version changes on every write and is unique across process restarts.
func (s *ReviewSet) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionLocked()
}

func (s *ReviewSet) versionLocked() string { return fmt.Sprintf("%s.%d", s.epoch, s.rev) }
