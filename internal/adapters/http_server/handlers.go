// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"guest_reviews/internal/adapters/places"
	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
)

// PlacesLookup is the live places preview. Results are never merged into the
// review set.
type PlacesLookup interface {
	SearchPlaces(ctx context.Context, query string) ([]places.Place, error)
	PlaceDetails(ctx context.Context, placeID string) (places.Place, error)
	PlaceReviews(ctx context.Context, placeID string) ([]domain.CanonicalReview, error)
	ReviewsByProperty(ctx context.Context, name, location string) ([]domain.CanonicalReview, error)
}

type Handlers struct {
	Pipeline *app.Pipeline
	Q        *app.QueryService
	Auth     *app.AuthService
	Places   PlacesLookup // optional

	validate *validator.Validate
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// envelope is the success body shape the dashboard client expects.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.validate == nil {
		h.validate = newValidator()
	}
	manager := func(r chi.Router) {
		r.Use(Authenticate(h.Auth))
		r.Use(RequireManager)
	}

	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.login)
			r.With(Authenticate(h.Auth)).Get("/profile", h.profile)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/approved", h.approvedReviews)
			r.Get("/properties", h.properties)
			r.Group(func(r chi.Router) {
				manager(r)
				r.Get("/", h.listReviews)
				r.Get("/dashboard-stats", h.dashboardStats)
				r.Patch("/{id}/approve", h.moderate(true))
				r.Patch("/{id}/reject", h.moderate(false))
			})
		})

		r.Get("/properties", h.properties)

		if h.Places != nil {
			r.Route("/places", func(r chi.Router) {
				manager(r)
				r.Get("/search", h.searchPlaces)
				r.Get("/reviews/search", h.placeReviewsByProperty)
				r.Get("/{placeId}", h.placeDetails)
				r.Get("/{placeId}/reviews", h.placeReviews)
			})
		}
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses. Details of
// unexpected errors stay in the log.
func writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Invalid "+ve.Field, ve.Error())
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		writeProblem(w, http.StatusForbidden, "Forbidden", "")
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Warn().Err(err).Msg("upstream unavailable")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "upstream service unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached writes v with a weak ETag and answers 304 when the client
// already holds it.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Str("route", routeOf(r)).Err(err).Msg("failed to write body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func list[T any](items []T) envelope {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return envelope{Success: true, Data: items, Count: &n}
}

// ---- reviews ----

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	f, err := h.parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, list(h.Q.Reviews(f)))
}

func (h *Handlers) approvedReviews(w http.ResponseWriter, r *http.Request) {
	var pid *string
	if v := r.URL.Query().Get("propertyId"); v != "" {
		pid = &v
	}
	writeCached(w, r, list(h.Q.Approved(pid)))
}

func (h *Handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, envelope{Success: true, Data: h.Q.DashboardStats(r.Context())})
}

func (h *Handlers) properties(w http.ResponseWriter, r *http.Request) {
	writeCached(w, r, list(h.Q.Properties(r.Context())))
}

func (h *Handlers) moderate(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
			return
		}
		verb, decide := "rejected", h.Pipeline.Reject
		if approve {
			verb, decide = "approved", h.Pipeline.Approve
		}
		if !decide(r.Context(), id) {
			writeProblem(w, http.StatusNotFound, "Not Found", "review not found")
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Review " + verb + " successfully"})
	}
}

// ---- auth ----

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  app.Manager `json:"user"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", "request body must be a JSON object")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}
	tok, m, err := h.Auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: loginResponse{Token: tok, User: m}})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	c, _ := claimsFrom(r.Context())
	m, err := h.Auth.Profile(c.Subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: m})
}

// ---- places preview ----

func (h *Handlers) searchPlaces(w http.ResponseWriter, r *http.Request) {
	found, err := h.Places.SearchPlaces(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(found))
}

func (h *Handlers) placeDetails(w http.ResponseWriter, r *http.Request) {
	p, err := h.Places.PlaceDetails(r.Context(), chi.URLParam(r, "placeId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: p})
}

func (h *Handlers) placeReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Places.PlaceReviews(r.Context(), chi.URLParam(r, "placeId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(rs))
}

func (h *Handlers) placeReviewsByProperty(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rs, err := h.Places.ReviewsByProperty(r.Context(), q.Get("propertyName"), q.Get("location"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list(rs))
}
