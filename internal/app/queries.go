package app

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"guest_reviews/internal/domain"
)

const (
	recentLimit = 5
	topLimit    = 5
)

// QueryService answers read-only questions over the current review set.
// Dashboard and property results are cached under the set's version, so any
// write to the set makes older entries unreachable.
type QueryService struct {
	set      *ReviewSet
	registry *Registry
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(set *ReviewSet, reg *Registry, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{set: set, registry: reg, cache: c, cacheTTL: ttl}
}

// Reviews applies f and sorts newest first.
func (s *QueryService) Reviews(f domain.ReviewFilters) []domain.CanonicalReview {
	return Filter(s.set.Snapshot(), f)
}

// Approved lists approved reviews, optionally for one property.
func (s *QueryService) Approved(propertyID *string) []domain.CanonicalReview {
	yes := true
	return s.Reviews(domain.ReviewFilters{PropertyID: propertyID, IsApproved: &yes})
}

func (s *QueryService) DashboardStats(ctx context.Context) domain.DashboardStats {
	var out domain.DashboardStats
	if s.cached(ctx, "dashboard", &out) {
		return out
	}
	rs, version := s.set.View()
	out = ComputeDashboard(rs, s.registry)
	s.store(ctx, "dashboard", version, out)
	return out
}

func (s *QueryService) Properties(ctx context.Context) []domain.Property {
	var out []domain.Property
	if s.cached(ctx, "properties", &out) {
		return out
	}
	rs, version := s.set.View()
	out = s.registry.List(rs)
	s.store(ctx, "properties", version, out)
	return out
}

func (s *QueryService) cached(ctx context.Context, kind string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, cacheKey(kind, s.set.Version()), dst)
	return ok
}

func (s *QueryService) store(ctx context.Context, kind, version string, v any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey(kind, version), v, int(s.cacheTTL.Seconds()))
}

func cacheKey(kind, version string) string { return fmt.Sprintf("%s:%s", kind, version) }

// Filter applies every present predicate (AND) and returns the matches sorted
// by submittedAt descending. Ties keep input order.
func Filter(rs []domain.CanonicalReview, f domain.ReviewFilters) []domain.CanonicalReview {
	out := make([]domain.CanonicalReview, 0, len(rs))
	for _, r := range rs {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	SortRecent(out)
	return out
}

func matches(r domain.CanonicalReview, f domain.ReviewFilters) bool {
	switch {
	case f.PropertyID != nil && r.PropertyID != *f.PropertyID:
		return false
	case f.MinRating != nil && r.OverallRating < *f.MinRating:
		return false
	case f.Category != nil && r.Categories.Get(*f.Category) <= 0:
		return false
	case f.Channel != nil && r.SourceChannel != *f.Channel:
		return false
	case f.Status != nil && r.Status != *f.Status:
		return false
	case f.IsApproved != nil && r.IsApproved != *f.IsApproved:
		return false
	case f.DateFrom != nil && r.SubmittedAt.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && r.SubmittedAt.After(*f.DateTo):
		return false
	}
	return true
}

func SortRecent(rs []domain.CanonicalReview) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].SubmittedAt.After(rs[j].SubmittedAt) })
}

// ComputeDashboard aggregates over the full, unfiltered set.
func ComputeDashboard(rs []domain.CanonicalReview, reg *Registry) domain.DashboardStats {
	out := domain.DashboardStats{
		TotalReviews:       len(rs),
		PropertiesCount:    reg.Len(),
		RatingDistribution: map[int]int{},
	}

	var sum float64
	for _, r := range rs {
		sum += r.OverallRating
		if r.IsApproved {
			out.ApprovedReviews++
		}
		if r.Status == domain.StatusPending {
			out.PendingReviews++
		}
		out.RatingDistribution[int(math.Round(r.OverallRating))]++
	}
	if len(rs) > 0 {
		out.AverageRating = domain.Round1(sum / float64(len(rs)))
	}

	recent := make([]domain.CanonicalReview, len(rs))
	copy(recent, rs)
	SortRecent(recent)
	out.RecentReviews = recent[:min(recentLimit, len(recent))]

	var rated []domain.Property
	for _, p := range reg.List(rs) {
		if p.TotalReviews > 0 {
			rated = append(rated, p)
		}
	}
	sort.SliceStable(rated, func(i, j int) bool { return rated[i].AverageRating > rated[j].AverageRating })
	out.TopPerformingProperties = rated[:min(topLimit, len(rated))]
	if out.TopPerformingProperties == nil {
		out.TopPerformingProperties = []domain.Property{}
	}
	return out
}
