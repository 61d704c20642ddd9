package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"guest_reviews/internal/domain"
)

// ---- fakes ----

type memStore struct {
	mu          sync.Mutex
	ds          domain.Decisions
	rs          []domain.CanonicalReview
	fail        bool
	reviewSaves int
	decSaves    int
}

func (m *memStore) LoadDecisions(ctx context.Context) (domain.Decisions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ds == nil {
		return domain.Decisions{}, nil
	}
	return m.ds.Clone(), nil
}

func (m *memStore) SaveDecisions(ctx context.Context, ds domain.Decisions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return domain.ErrPersistence
	}
	m.decSaves++
	m.ds = ds.Clone()
	return nil
}

func (m *memStore) LoadReviews(ctx context.Context) ([]domain.CanonicalReview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CanonicalReview(nil), m.rs...), nil
}

func (m *memStore) SaveReviews(ctx context.Context, rs []domain.CanonicalReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return domain.ErrPersistence
	}
	m.reviewSaves++
	m.rs = append([]domain.CanonicalReview(nil), rs...)
	return nil
}

func (m *memStore) setFail(v bool) {
	m.mu.Lock()
	m.fail = v
	m.mu.Unlock()
}

func (m *memStore) decisions() domain.Decisions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ds.Clone()
}

func (m *memStore) saves() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decSaves, m.reviewSaves
}

type fakeProvider struct {
	ch    domain.Channel
	rs    []domain.CanonicalReview
	block bool
	calls atomic.Int32
}

func (f *fakeProvider) Channel() domain.Channel { return f.ch }

func (f *fakeProvider) Reviews(ctx context.Context) []domain.CanonicalReview {
	f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil
	}
	return append([]domain.CanonicalReview(nil), f.rs...)
}

// jsonCache round-trips values through JSON like the Redis adapter does.
type jsonCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	sets int
	hits int
}

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.m[key] = b
	return nil
}

// ---- helpers ----

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func review(id int64, prop string, rating float64, daysAgo int) domain.CanonicalReview {
	return domain.CanonicalReview{
		ID:            id,
		Direction:     domain.GuestToHost,
		Status:        domain.StatusPending,
		OverallRating: rating,
		Categories:    domain.UniformCategories(rating),
		SubmittedAt:   t0.AddDate(0, 0, -daysAgo),
		SourceChannel: domain.ChannelHostaway,
		PropertyID:    prop,
	}
}

func ptr[T any](v T) *T { return &v }
