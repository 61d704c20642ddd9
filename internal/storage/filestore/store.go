// Package filestore keeps moderation decisions and the canonical review set as
// two JSON documents in one directory.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"guest_reviews/internal/domain"
)

const (
	DecisionsFile = "review-states.json"
	ReviewsFile   = "reviews.json"
)

type decisionsDoc struct {
	Reviews  []domain.ModerationDecision `json:"reviews"`
	LastSync time.Time                   `json:"lastSync"`
}

type reviewsDoc struct {
	Reviews  []domain.CanonicalReview `json:"reviews"`
	LastSync time.Time                `json:"lastSync"`
}

// Store implements domain.StateStore on the local filesystem.
type Store struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrPersistence, dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) LoadDecisions(ctx context.Context) (domain.Decisions, error) {
	var doc decisionsDoc
	if err := s.read(DecisionsFile, &doc); err != nil {
		return nil, err
	}
	out := make(domain.Decisions, len(doc.Reviews))
	for _, d := range doc.Reviews {
		out[d.ReviewID] = d
	}
	return out, nil
}

func (s *Store) SaveDecisions(ctx context.Context, ds domain.Decisions) error {
	doc := decisionsDoc{Reviews: make([]domain.ModerationDecision, 0, len(ds)), LastSync: s.now().UTC()}
	for _, d := range ds {
		doc.Reviews = append(doc.Reviews, d)
	}
	sort.Slice(doc.Reviews, func(i, j int) bool { return doc.Reviews[i].ReviewID < doc.Reviews[j].ReviewID })
	return s.write(DecisionsFile, doc)
}

func (s *Store) LoadReviews(ctx context.Context) ([]domain.CanonicalReview, error) {
	var doc reviewsDoc
	if err := s.read(ReviewsFile, &doc); err != nil {
		return nil, err
	}
	return doc.Reviews, nil
}

func (s *Store) SaveReviews(ctx context.Context, rs []domain.CanonicalReview) error {
	if rs == nil {
		rs = []domain.CanonicalReview{}
	}
	return s.write(ReviewsFile, reviewsDoc{Reviews: rs, LastSync: s.now().UTC()})
}

// read decodes name into dst. A missing file leaves dst untouched.
func (s *Store) read(name string, dst any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", domain.ErrPersistence, name, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", domain.ErrPersistence, name, err)
	}
	return nil
}

// write replaces name atomically. The temp file lives in the store directory
// so the rename never crosses filesystems.
func (s *Store) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", domain.ErrPersistence, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := renameio.WriteFile(filepath.Join(s.dir, name), b, 0o644, renameio.WithTempDir(s.dir)); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrPersistence, name, err)
	}
	return nil
}
