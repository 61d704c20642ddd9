package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"guest_reviews/internal/adapters/observability"
	"guest_reviews/internal/domain"
)

type PipelineOptions struct {
	Workers         int
	ProviderTimeout time.Duration
}

// Pipeline merges provider output into the review set and owns moderation.
// All writes are serialized on mu; the decision map in memory is authoritative
// and every persist writes it in full.
type Pipeline struct {
	providers []domain.Provider
	store     domain.StateStore
	set       *ReviewSet
	workers   int
	timeout   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	decisions domain.Decisions
	loaded    bool
}

func NewPipeline(store domain.StateStore, set *ReviewSet, o PipelineOptions, providers ...domain.Provider) *Pipeline {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 15 * time.Second
	}
	return &Pipeline{
		providers: providers,
		store:     store,
		set:       set,
		workers:   o.Workers,
		timeout:   o.ProviderTimeout,
		now:       time.Now,
		decisions: domain.Decisions{},
	}
}

// LoadOrRefresh restores the persisted review set when there is one and only
// fetches from providers when the store holds no reviews.
func (p *Pipeline) LoadOrRefresh(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ds, err := p.store.LoadDecisions(ctx)
	if err != nil {
		observability.ObserveStoreError("load_decisions")
		return fmt.Errorf("load decisions: %w", err)
	}
	p.decisions = ds
	p.loaded = true

	stored, err := p.store.LoadReviews(ctx)
	if err != nil {
		observability.ObserveStoreError("load_reviews")
		return fmt.Errorf("load reviews: %w", err)
	}
	if len(stored) > 0 {
		p.set.ReplaceApplied(stored, p.decisions)
		log.Info().Int("reviews", len(stored)).Int("decisions", len(ds)).Msg("review set restored from store")
		return nil
	}

	p.set.ReplaceApplied(p.fetchAll(ctx), p.decisions)
	_ = p.persistLocked(ctx)
	return nil
}

// Refresh re-fetches every provider and replaces the stored set. Decisions are
// kept and reapplied; a pipeline that never loaded reads them from the store
// first so a standalone refresh cannot drop them.
func (p *Pipeline) Refresh(ctx context.Context) error {
	fresh := p.fetchAll(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		ds, err := p.store.LoadDecisions(ctx)
		if err != nil {
			observability.ObserveStoreError("load_decisions")
			return fmt.Errorf("load decisions: %w", err)
		}
		p.decisions, p.loaded = ds, true
	}
	p.set.ReplaceApplied(fresh, p.decisions)
	return p.persistLocked(ctx)
}

// Reconcile overlays the current decisions onto every review.
func (p *Pipeline) Reconcile() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set.Apply(p.decisions)
}

// Approve records an approval. It reports false for an unknown id.
func (p *Pipeline) Approve(ctx context.Context, id int64) bool { return p.decide(ctx, id, true) }

// Reject records a rejection. It reports false for an unknown id.
func (p *Pipeline) Reject(ctx context.Context, id int64) bool { return p.decide(ctx, id, false) }

// Decision returns the recorded decision for id, if any.
func (p *Pipeline) Decision(id int64) (domain.ModerationDecision, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decisions.Lookup(id)
}

func (p *Pipeline) decide(ctx context.Context, id int64, approved bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.set.Has(id) {
		return false
	}
	p.decisions[id] = domain.ModerationDecision{ReviewID: id, IsApproved: approved, LastUpdated: p.now().UTC()}
	observability.ObserveDecision(approved)

	// Whole-set reconcile keeps every projection consistent with the map.
	p.set.Apply(p.decisions)
	_ = p.persistLocked(ctx)

	log.Info().Int64("id", id).Bool("approved", approved).Msg("moderation decision recorded")
	return true
}

// persistLocked writes decisions and reviews from memory. Failures are logged
// and counted; memory stays as is so the next persist catches the store up.
func (p *Pipeline) persistLocked(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var firstErr error
	if err := p.store.SaveDecisions(ctx, p.decisions.Clone()); err != nil {
		observability.ObserveStoreError("save_decisions")
		log.Error().Err(err).Msg("persist decisions failed")
		firstErr = err
	}
	if err := p.store.SaveReviews(ctx, p.set.Snapshot()); err != nil {
		observability.ObserveStoreError("save_reviews")
		log.Error().Err(err).Msg("persist reviews failed")
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// fetchAll runs every provider with bounded concurrency and a per-provider
// timeout. Results are concatenated in registration order.
func (p *Pipeline) fetchAll(ctx context.Context) []domain.CanonicalReview {
	results := make([][]domain.CanonicalReview, len(p.providers))
	sem := semaphore.NewWeighted(int64(p.workers))
	g, gctx := errgroup.WithContext(ctx)

	for i, pr := range p.providers {
		if err := sem.Acquire(gctx, 1); err != nil {
			log.Warn().Err(err).Msg("provider fetch aborted")
			break
		}
		i, pr := i, pr
		g.Go(func() error {
			defer sem.Release(1)
			fctx, cancel := context.WithTimeout(gctx, p.timeout)
			defer cancel()

			start := time.Now()
			results[i] = pr.Reviews(fctx)
			log.Info().
				Str("provider", string(pr.Channel())).
				Int("reviews", len(results[i])).
				Dur("took", time.Since(start)).
				Msg("provider fetched")
			return nil
		})
	}
	_ = g.Wait()

	var out []domain.CanonicalReview
	for _, rs := range results {
		out = append(out, rs...)
	}
	return out
}
