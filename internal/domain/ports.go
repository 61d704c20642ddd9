package domain

import "context"

// Provider is one external review source. Reviews never fails: adapters
// degrade to their fallback dataset and log the upstream error themselves.
type Provider interface {
	Channel() Channel
	Reviews(ctx context.Context) []CanonicalReview
}

// StateStore persists the two durable records: moderation decisions and the
// full canonical review set. Each is loaded and saved independently.
type StateStore interface {
	LoadDecisions(ctx context.Context) (Decisions, error)
	SaveDecisions(ctx context.Context, ds Decisions) error
	LoadReviews(ctx context.Context) ([]CanonicalReview, error)
	SaveReviews(ctx context.Context, rs []CanonicalReview) error
}

// Cache holds query results. Keys embed the review set version, so entries
// are never deleted explicitly; they age out by TTL.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
}
