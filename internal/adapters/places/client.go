// internal/adapters/places/client.go
package places

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"guest_reviews/internal/adapters/observability"
	"guest_reviews/internal/adapters/upstream"
	"guest_reviews/internal/domain"
)

const detailFields = "place_id,name,rating,user_ratings_total,reviews,formatted_address,geometry"

type Review struct {
	AuthorName              string  `json:"author_name"`
	AuthorURL               string  `json:"author_url,omitempty"`
	Language                string  `json:"language"`
	ProfilePhotoURL         string  `json:"profile_photo_url,omitempty"`
	Rating                  float64 `json:"rating"`
	RelativeTimeDescription string  `json:"relative_time_description"`
	Text                    string  `json:"text"`
	Time                    int64   `json:"time"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location LatLng `json:"location"`
}

// Place is a place-details record as returned by the places API.
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Reviews          []Review `json:"reviews"`
	FormattedAddress string   `json:"formatted_address"`
	Geometry         Geometry `json:"geometry"`
}

type detailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Result       *Place `json:"result"`
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []Place `json:"results"`
}

type Config struct {
	BaseURL  string
	APIKey   string
	PlaceIDs []string
	RPS      int
	Timeout  time.Duration
}

// Adapter fetches and normalizes reviews from the places API.
type Adapter struct {
	base     string
	hasKey   bool
	placeIDs []string
	cl       *upstream.Client
	aliases  domain.AliasTable
}

func New(cfg Config) *Adapter {
	return &Adapter{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		hasKey:   cfg.APIKey != "",
		placeIDs: cfg.PlaceIDs,
		cl: upstream.New(upstream.Options{
			Service: string(domain.ChannelGoogle),
			RPS:     cfg.RPS,
			Timeout: cfg.Timeout,
			Auth:    upstream.QueryKey("key", cfg.APIKey),
		}),
		aliases: domain.CatalogAliases,
	}
}

func (a *Adapter) Channel() domain.Channel { return domain.ChannelGoogle }

// SearchPlaces runs a lodging text search.
func (a *Adapter) SearchPlaces(ctx context.Context, query string) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Invalid("query", "is required")
	}
	u := fmt.Sprintf("%s/textsearch/json?query=%s&type=lodging", a.base, url.QueryEscape(query))
	var out searchResponse
	if err := a.cl.GetJSON(ctx, "textsearch", u, &out); err != nil {
		return nil, fmt.Errorf("%w: places search: %w", domain.ErrUpstreamUnavailable, err)
	}
	switch out.Status {
	case "OK", "":
		return out.Results, nil
	case "ZERO_RESULTS":
		return []Place{}, nil
	default:
		return nil, fmt.Errorf("%w: places search status %s %s", domain.ErrUpstreamUnavailable, out.Status, out.ErrorMessage)
	}
}

// PlaceDetails fetches one place with its reviews.
func (a *Adapter) PlaceDetails(ctx context.Context, placeID string) (Place, error) {
	if strings.TrimSpace(placeID) == "" {
		return Place{}, domain.Invalid("placeId", "is required")
	}
	u := fmt.Sprintf("%s/details/json?place_id=%s&fields=%s", a.base, url.QueryEscape(placeID), url.QueryEscape(detailFields))
	var out detailsResponse
	if err := a.cl.GetJSON(ctx, "details", u, &out); err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return Place{}, domain.ErrNotFound
		}
		return Place{}, fmt.Errorf("%w: places details: %w", domain.ErrUpstreamUnavailable, err)
	}
	switch out.Status {
	case "OK", "":
		if out.Result == nil {
			return Place{}, domain.ErrNotFound
		}
		return *out.Result, nil
	case "NOT_FOUND", "INVALID_REQUEST":
		return Place{}, domain.ErrNotFound
	default:
		return Place{}, fmt.Errorf("%w: places details status %s %s", domain.ErrUpstreamUnavailable, out.Status, out.ErrorMessage)
	}
}

// Fetch returns details for every configured place. Places that fail are
// skipped; when none can be fetched the fallback dataset is served.
func (a *Adapter) Fetch(ctx context.Context) []Place {
	if !a.hasKey || len(a.placeIDs) == 0 {
		log.Warn().Str("provider", "google").Msg("no API key or place ids configured, serving fallback reviews")
		observability.ObserveFallback("google")
		return Fallback()
	}
	out := make([]Place, 0, len(a.placeIDs))
	for _, id := range a.placeIDs {
		p, err := a.PlaceDetails(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("provider", "google").Str("place_id", id).Msg("place details failed")
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		log.Warn().Str("provider", "google").Msg("no place could be fetched, serving fallback reviews")
		observability.ObserveFallback("google")
		return Fallback()
	}
	return out
}

// Reviews implements domain.Provider.
func (a *Adapter) Reviews(ctx context.Context) []domain.CanonicalReview {
	var out []domain.CanonicalReview
	for _, p := range a.Fetch(ctx) {
		out = append(out, a.Normalize(p)...)
	}
	return out
}

// PlaceReviews fetches one place and normalizes its reviews without merging
// them into the review set.
func (a *Adapter) PlaceReviews(ctx context.Context, placeID string) ([]domain.CanonicalReview, error) {
	p, err := a.PlaceDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	return a.Normalize(p), nil
}

// ReviewsByProperty searches for "<name> <location>" and normalizes the
// reviews of the best match. No match yields an empty list.
func (a *Adapter) ReviewsByProperty(ctx context.Context, name, location string) ([]domain.CanonicalReview, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.Invalid("propertyName", "is required")
	}
	if strings.TrimSpace(location) == "" {
		location = "London UK"
	}
	found, err := a.SearchPlaces(ctx, name+" "+location)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return []domain.CanonicalReview{}, nil
	}
	out, err := a.PlaceReviews(ctx, found[0].PlaceID)
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.CanonicalReview{}, nil
	}
	return out, err
}
