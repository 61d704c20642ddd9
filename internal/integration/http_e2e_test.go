//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"guest_reviews/internal/adapters/hostaway"
	server "guest_reviews/internal/adapters/http_server"
	"guest_reviews/internal/adapters/places"
	redisad "guest_reviews/internal/adapters/redis"
	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
	"guest_reviews/internal/storage/filestore"
)

// ---------- fake upstreams ----------
type upstreams struct {
	hostaway, places *httptest.Server
	hostawayCalls    atomic.Int32
}

func startUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}
	u.hostaway = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hostawayCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer hk" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"result": []map[string]any{
				{
					"id": 501, "type": "guest-to-host", "status": "published", "rating": 9,
					"publicReview":   "Spotless and central",
					"reviewCategory": []map[string]any{{"category": "cleanliness", "rating": 10}, {"category": "location", "rating": 8}},
					"submittedAt":    "2024-02-01 12:00:00",
					"guestName":      "Ana",
					"listingName":    "Luxury Loft in Manhattan",
				},
				{
					"id": 502, "type": "guest-to-host", "status": "published", "rating": 6,
					"publicReview": "Noisy street",
					"submittedAt":  "2024-01-15 08:30:00",
					"guestName":    "Ben",
					"listingName":  "Cozy Apartment in Queens",
				},
			},
		})
	}))
	u.places = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "pk" {
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "REQUEST_DENIED"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"result": map[string]any{
				"place_id": "pid1",
				"name":     "Penthouse with City Views",
				"rating":   5,
				"reviews":  []map[string]any{{"author_name": "Lee", "rating": 5, "text": "Wow", "time": 1706000000}},
			},
		})
	}))
	t.Cleanup(u.hostaway.Close)
	t.Cleanup(u.places.Close)
	return u
}

// ---------- the stack cmd/api builds, minus env ----------
func startAPI(t *testing.T, dir string, u *upstreams, cache domain.Cache) (*httptest.Server, *app.AuthService) {
	t.Helper()
	store, err := filestore.New(dir)
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}
	hw := hostaway.New(hostaway.Config{BaseURL: u.hostaway.URL, APIKey: "hk", AccountID: "61148", RPS: 100, Timeout: 2 * time.Second})
	gp := places.New(places.Config{BaseURL: u.places.URL, APIKey: "pk", PlaceIDs: []string{"pid1"}, RPS: 100, Timeout: 2 * time.Second})

	set := app.NewReviewSet()
	pipe := app.NewPipeline(store, set, app.PipelineOptions{Workers: 2, ProviderTimeout: 5 * time.Second}, hw, gp)
	if err := pipe.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh: %v", err)
	}
	auth, err := app.NewAuthService("e2e-secret", time.Hour,
		app.Seed{Email: "manager@flexliving.com", Password: "admin123", Name: "Property Manager", Role: app.RoleManager})
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	q := app.NewQueryService(set, app.NewRegistry(app.DefaultCatalog()), cache, time.Minute)

	srv := server.New()
	srv.MountHandlers(&server.Handlers{Pipeline: pipe, Q: q, Auth: auth, Places: gp})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts, auth
}

type body struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
}

func call(t *testing.T, method, url, token, payload string, wantStatus int) body {
	t.Helper()
	req, _ := http.NewRequest(method, url, strings.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", method, url, res.StatusCode, wantStatus)
	}
	var b body
	_ = json.NewDecoder(res.Body).Decode(&b)
	return b
}

func reviewIDs(t *testing.T, b body) []int64 {
	t.Helper()
	var rs []domain.CanonicalReview
	if err := json.Unmarshal(b.Data, &rs); err != nil {
		t.Fatalf("decode reviews: %v", err)
	}
	ids := make([]int64, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// ---------- the test ----------
func TestHTTP_EndToEnd_ModerationSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	u := startUpstreams(t)

	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "e2e:")
	t.Cleanup(func() { _ = cache.Close() })

	ts, _ := startAPI(t, dir, u, cache)

	// Nothing is approved before a manager acts.
	if b := call(t, http.MethodGet, ts.URL+"/api/reviews/approved", "", "", http.StatusOK); b.Count != 0 {
		t.Fatalf("approved before moderation: %d", b.Count)
	}

	var login struct {
		Token string `json:"token"`
	}
	b := call(t, http.MethodPost, ts.URL+"/api/auth/login", "", `{"email":"manager@flexliving.com","password":"admin123"}`, http.StatusOK)
	if err := json.Unmarshal(b.Data, &login); err != nil || login.Token == "" {
		t.Fatalf("login: %v %s", err, b.Data)
	}

	// Both providers are merged: two property-management reviews and one place review.
	all := call(t, http.MethodGet, ts.URL+"/api/reviews", login.Token, "", http.StatusOK)
	if all.Count != 3 {
		t.Fatalf("merged reviews = %d, want 3", all.Count)
	}
	google := call(t, http.MethodGet, ts.URL+"/api/reviews?channel=google", login.Token, "", http.StatusOK)
	if ids := reviewIDs(t, google); len(ids) != 1 || ids[0] <= places.IDOffset {
		t.Fatalf("google reviews = %v", ids)
	}

	// Prime the cache, then moderate; the next read must see the change.
	call(t, http.MethodGet, ts.URL+"/api/reviews/dashboard-stats", login.Token, "", http.StatusOK)
	call(t, http.MethodPatch, ts.URL+"/api/reviews/501/approve", login.Token, "", http.StatusOK)
	call(t, http.MethodPatch, ts.URL+"/api/reviews/502/reject", login.Token, "", http.StatusOK)
	call(t, http.MethodPatch, ts.URL+"/api/reviews/999/approve", login.Token, "", http.StatusNotFound)

	var stats domain.DashboardStats
	if err := json.Unmarshal(call(t, http.MethodGet, ts.URL+"/api/reviews/dashboard-stats", login.Token, "", http.StatusOK).Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalReviews != 3 || stats.ApprovedReviews != 1 || stats.PendingReviews != 1 {
		t.Fatalf("stats after moderation: %+v", stats)
	}

	approved := call(t, http.MethodGet, ts.URL+"/api/reviews/approved?propertyId=luxury-loft-manhattan", "", "", http.StatusOK)
	if ids := reviewIDs(t, approved); len(ids) != 1 || ids[0] != 501 {
		t.Fatalf("approved for loft = %v", ids)
	}

	// Restart on the same data dir: the stored set wins and decisions hold.
	calls := u.hostawayCalls.Load()
	ts2, _ := startAPI(t, dir, u, nil)
	if got := u.hostawayCalls.Load(); got != calls {
		t.Fatalf("restart re-fetched providers: %d -> %d", calls, got)
	}
	approved = call(t, http.MethodGet, ts2.URL+"/api/reviews/approved", "", "", http.StatusOK)
	if ids := reviewIDs(t, approved); len(ids) != 1 || ids[0] != 501 {
		t.Fatalf("approved after restart = %v", ids)
	}

	var props []domain.Property
	if err := json.Unmarshal(call(t, http.MethodGet, ts2.URL+"/api/properties", "", "", http.StatusOK).Data, &props); err != nil {
		t.Fatalf("decode properties: %v", err)
	}
	if len(props) != 5 {
		t.Fatalf("catalog size = %d, want 5", len(props))
	}
}
