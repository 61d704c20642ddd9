package app_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"guest_reviews/internal/adapters/hostaway"
	"guest_reviews/internal/adapters/places"
	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
)

func newPipeline(store domain.StateStore, providers ...domain.Provider) (*app.Pipeline, *app.ReviewSet) {
	set := app.NewReviewSet()
	return app.NewPipeline(store, set, app.PipelineOptions{Workers: 2, ProviderTimeout: time.Second}, providers...), set
}

func fallbackHostaway() *hostaway.Adapter {
	return hostaway.New(hostaway.Config{BaseURL: "http://unused", RPS: 100, Timeout: time.Second})
}

func assertInvariant(t *testing.T, rs []domain.CanonicalReview, ds domain.Decisions) {
	t.Helper()
	for _, r := range rs {
		if r.IsApproved != (r.Status == domain.StatusPublished) {
			t.Fatalf("review %d: isApproved=%v status=%s", r.ID, r.IsApproved, r.Status)
		}
		d, ok := ds[r.ID]
		if r.Status == domain.StatusRejected && (!ok || d.IsApproved) {
			t.Fatalf("review %d rejected without a reject decision", r.ID)
		}
	}
}

func TestLoadOrRefresh_PersistOnce(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	a := &fakeProvider{ch: domain.ChannelHostaway, rs: []domain.CanonicalReview{review(1, "p", 9, 1), review(2, "p", 8, 2)}}
	b := &fakeProvider{ch: domain.ChannelGoogle, rs: []domain.CanonicalReview{review(10001, "q", 10, 3)}}

	p, set := newPipeline(store, a, b)
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	got := set.Snapshot()
	if len(got) != 3 || got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 10001 {
		t.Fatalf("merge must follow registration order: %+v", got)
	}
	if _, rs := store.saves(); rs != 1 {
		t.Fatalf("want one reviews save, got %d", rs)
	}

	// Second start: the stored set wins and providers are not consulted.
	p2, set2 := newPipeline(store, a, b)
	if err := p2.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh (restore): %v", err)
	}
	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Fatalf("providers re-fetched: a=%d b=%d", a.calls.Load(), b.calls.Load())
	}
	if set2.Len() != 3 {
		t.Fatalf("restored %d reviews, want 3", set2.Len())
	}
}

func TestApprove_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, _ := newPipeline(store, fallbackHostaway())
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	if !p.Approve(ctx, 7454) {
		t.Fatalf("approve 7454 failed")
	}

	p2, set2 := newPipeline(store, fallbackHostaway())
	if err := p2.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	r, ok := set2.Get(7454)
	if !ok {
		t.Fatalf("7454 missing after reload")
	}
	if !r.IsApproved || r.Status != domain.StatusPublished {
		t.Fatalf("after reload: isApproved=%v status=%s", r.IsApproved, r.Status)
	}
	assertInvariant(t, set2.Snapshot(), store.decisions())
}

func TestReject_UnknownIDLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, _ := newPipeline(store, fallbackHostaway())
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	ds, rs := store.saves()

	if p.Reject(ctx, 999999) {
		t.Fatalf("reject of unknown id must report false")
	}
	if p.Approve(ctx, 999999) {
		t.Fatalf("approve of unknown id must report false")
	}
	if ds2, rs2 := store.saves(); ds2 != ds || rs2 != rs {
		t.Fatalf("store written for unknown id: %d/%d -> %d/%d", ds, rs, ds2, rs2)
	}
	if _, ok := p.Decision(999999); ok {
		t.Fatalf("decision recorded for unknown id")
	}
}

func TestReject_SetsRejectedAndRecomputesWholeSet(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, set := newPipeline(store, fallbackHostaway())
	_ = p.LoadOrRefresh(ctx)

	p.Approve(ctx, 7455)
	p.Reject(ctx, 7455)
	p.Approve(ctx, 7457)

	r, _ := set.Get(7455)
	if r.Status != domain.StatusRejected || r.IsApproved {
		t.Fatalf("7455: %+v", r)
	}
	r, _ = set.Get(7457)
	if r.Status != domain.StatusPublished || !r.IsApproved {
		t.Fatalf("7457: %+v", r)
	}
	r, _ = set.Get(7453)
	if r.Status != domain.StatusPending {
		t.Fatalf("7453 should stay pending: %+v", r)
	}
	assertInvariant(t, set.Snapshot(), store.decisions())
}

func TestLoadOrRefresh_FallbackWhenProvidersFail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	hw := hostaway.New(hostaway.Config{BaseURL: ts.URL, APIKey: "bad", RPS: 100, Timeout: time.Second})
	pl := places.New(places.Config{BaseURL: ts.URL, APIKey: "bad", PlaceIDs: []string{"x"}, RPS: 100, Timeout: time.Second})

	p, set := newPipeline(&memStore{}, hw, pl)
	if err := p.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh must not fail on provider errors: %v", err)
	}
	got := set.Snapshot()
	if len(got) != len(hostaway.Fallback())+2 {
		t.Fatalf("want fallback sets merged, got %d reviews", len(got))
	}
	if got[0].SourceChannel != domain.ChannelHostaway || got[len(got)-1].SourceChannel != domain.ChannelGoogle {
		t.Fatalf("merge order: first=%s last=%s", got[0].SourceChannel, got[len(got)-1].SourceChannel)
	}
}

func TestLoadOrRefresh_SlowProviderTimesOut(t *testing.T) {
	slow := &fakeProvider{ch: domain.ChannelGoogle, block: true}
	fast := &fakeProvider{ch: domain.ChannelHostaway, rs: []domain.CanonicalReview{review(1, "p", 9, 0)}}

	set := app.NewReviewSet()
	p := app.NewPipeline(&memStore{}, set, app.PipelineOptions{Workers: 2, ProviderTimeout: 50 * time.Millisecond}, fast, slow)

	done := make(chan error, 1)
	go func() { done <- p.LoadOrRefresh(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("LoadOrRefresh: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("pipeline stalled on a slow provider")
	}
	if set.Len() != 1 {
		t.Fatalf("want only the fast provider's review, got %d", set.Len())
	}
}

func TestApprove_PersistFailureKeepsMemoryAndCatchesUp(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, set := newPipeline(store, fallbackHostaway())
	_ = p.LoadOrRefresh(ctx)

	store.setFail(true)
	if !p.Approve(ctx, 7454) {
		t.Fatalf("approve must succeed in memory even when the store fails")
	}
	if r, _ := set.Get(7454); !r.IsApproved {
		t.Fatalf("memory lost the decision: %+v", r)
	}
	if _, ok := store.decisions()[7454]; ok {
		t.Fatalf("store should still be stale")
	}

	store.setFail(false)
	p.Reject(ctx, 7456)
	ds := store.decisions()
	if d, ok := ds[7454]; !ok || !d.IsApproved {
		t.Fatalf("next persist must carry the earlier decision: %+v", ds)
	}
	if d, ok := ds[7456]; !ok || d.IsApproved {
		t.Fatalf("7456 not rejected in store: %+v", ds)
	}
}

func TestModeration_ConcurrentMutationsConverge(t *testing.T) {
	ctx := context.Background()
	var rs []domain.CanonicalReview
	for i := int64(1); i <= 40; i++ {
		rs = append(rs, review(i, fmt.Sprintf("p%d", i%3), 8, int(i)))
	}
	store := &memStore{}
	p, set := newPipeline(store, &fakeProvider{ch: domain.ChannelHostaway, rs: rs})
	_ = p.LoadOrRefresh(ctx)

	var wg sync.WaitGroup
	for i := int64(1); i <= 40; i++ {
		wg.Add(2)
		go func(id int64) { defer wg.Done(); p.Approve(ctx, id) }(i)
		go func(id int64) { defer wg.Done(); p.Reject(ctx, id) }(i)
	}
	wg.Wait()

	ds := store.decisions()
	if len(ds) != 40 {
		t.Fatalf("want 40 stored decisions, got %d", len(ds))
	}
	for _, r := range set.Snapshot() {
		mem, _ := p.Decision(r.ID)
		if ds[r.ID].IsApproved != mem.IsApproved {
			t.Fatalf("review %d: store and memory disagree", r.ID)
		}
		if r.IsApproved != mem.IsApproved {
			t.Fatalf("review %d: projection stale", r.ID)
		}
	}
	assertInvariant(t, set.Snapshot(), ds)
}

func TestRefresh_KeepsDecisions(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	prov := &fakeProvider{ch: domain.ChannelHostaway, rs: []domain.CanonicalReview{review(1, "p", 9, 1)}}
	p, set := newPipeline(store, prov)
	_ = p.LoadOrRefresh(ctx)
	p.Approve(ctx, 1)

	prov.rs = append(prov.rs, review(2, "p", 7, 0))
	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("refresh did not pick up new reviews: %d", set.Len())
	}
	if r, _ := set.Get(1); !r.IsApproved {
		t.Fatalf("decision lost on refresh")
	}
	if r, _ := set.Get(2); r.Status != domain.StatusPending {
		t.Fatalf("new review should be pending: %+v", r)
	}
}

func TestRefresh_StandaloneReadsStoredDecisions(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, _ := newPipeline(store, fallbackHostaway())
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	if !p.Reject(ctx, 7455) {
		t.Fatalf("reject 7455 failed")
	}

	// A refresh-only process never calls LoadOrRefresh.
	p2, set2 := newPipeline(store, fallbackHostaway())
	if err := p2.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if d, ok := store.decisions().Lookup(7455); !ok || d.IsApproved {
		t.Fatalf("stored decision lost: %+v ok=%v", d, ok)
	}
	if r, _ := set2.Get(7455); r.Status != domain.StatusRejected {
		t.Fatalf("status = %s, want rejected", r.Status)
	}
}

func TestRefresh_KeepsApprovalOfFallbackPlaceReview(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	gp := func() *places.Adapter {
		return places.New(places.Config{BaseURL: "http://unused", RPS: 100, Timeout: time.Second})
	}
	p, set := newPipeline(store, fallbackHostaway(), gp())
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	var googleID int64
	for _, r := range set.Snapshot() {
		if r.SourceChannel == domain.ChannelGoogle {
			googleID = r.ID
			break
		}
	}
	if googleID == 0 {
		t.Fatalf("no fallback place review loaded")
	}
	if !p.Approve(ctx, googleID) {
		t.Fatalf("approve %d failed", googleID)
	}

	p2, set2 := newPipeline(store, fallbackHostaway(), gp())
	if err := p2.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	r, ok := set2.Get(googleID)
	if !ok {
		t.Fatalf("place review %d got a new id after refresh", googleID)
	}
	if !r.IsApproved || r.Status != domain.StatusPublished {
		t.Fatalf("approval lost after refresh: %+v", r)
	}
	assertInvariant(t, set2.Snapshot(), store.decisions())
}

func TestReconcile_RestoresProjection(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	p, set := newPipeline(store, fallbackHostaway())
	if err := p.LoadOrRefresh(ctx); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	p.Approve(ctx, 7454)
	p.Reject(ctx, 7456)

	// Wipe the projection without touching the pipeline's decisions.
	set.Apply(domain.Decisions{})
	if r, _ := set.Get(7454); r.IsApproved {
		t.Fatalf("projection not cleared")
	}

	p.Reconcile()
	if r, _ := set.Get(7454); !r.IsApproved || r.Status != domain.StatusPublished {
		t.Fatalf("7454 after reconcile: %+v", r)
	}
	if r, _ := set.Get(7456); r.Status != domain.StatusRejected {
		t.Fatalf("7456 after reconcile: %+v", r)
	}
	assertInvariant(t, set.Snapshot(), store.decisions())
}
