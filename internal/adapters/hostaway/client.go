// internal/adapters/hostaway/client.go
package hostaway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"guest_reviews/internal/adapters/observability"
	"guest_reviews/internal/adapters/upstream"
	"guest_reviews/internal/domain"
)

// Record is a review as returned by the property-management API.
type Record struct {
	ID             int64            `json:"id"`
	Type           string           `json:"type"`
	Status         string           `json:"status"`
	Rating         *float64         `json:"rating"`
	PublicReview   string           `json:"publicReview"`
	ReviewCategory []CategoryRating `json:"reviewCategory"`
	SubmittedAt    string           `json:"submittedAt"`
	GuestName      string           `json:"guestName"`
	ListingName    string           `json:"listingName"`
}

type CategoryRating struct {
	Category string  `json:"category"`
	Rating   float64 `json:"rating"`
}

type reviewsResponse struct {
	Status string   `json:"status"`
	Result []Record `json:"result"`
}

type Config struct {
	BaseURL   string
	APIKey    string
	AccountID string
	RPS       int
	Timeout   time.Duration
}

// Adapter fetches and normalizes reviews from the property-management API.
type Adapter struct {
	base      string
	accountID string
	hasKey    bool
	cl        *upstream.Client
	aliases   domain.AliasTable
}

func New(cfg Config) *Adapter {
	return &Adapter{
		base:      strings.TrimRight(cfg.BaseURL, "/"),
		accountID: cfg.AccountID,
		hasKey:    cfg.APIKey != "",
		cl: upstream.New(upstream.Options{
			Service: string(domain.ChannelHostaway),
			RPS:     cfg.RPS,
			Timeout: cfg.Timeout,
			Auth:    upstream.Bearer(cfg.APIKey),
		}),
		aliases: domain.CatalogAliases,
	}
}

func (a *Adapter) Channel() domain.Channel { return domain.ChannelHostaway }

// Fetch returns the provider's native records. Any failure (missing key,
// network, auth, decode) is logged and answered with the fallback dataset.
func (a *Adapter) Fetch(ctx context.Context) []Record {
	if !a.hasKey {
		log.Warn().Str("provider", "hostaway").Msg("no API key configured, serving fallback reviews")
		observability.ObserveFallback("hostaway")
		return Fallback()
	}
	recs, err := a.fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Str("provider", "hostaway").Msg("fetch failed, serving fallback reviews")
		observability.ObserveFallback("hostaway")
		return Fallback()
	}
	return recs
}

func (a *Adapter) fetch(ctx context.Context) ([]Record, error) {
	u := fmt.Sprintf("%s/reviews", a.base)
	if a.accountID != "" {
		u += "?accountId=" + url.QueryEscape(a.accountID)
	}
	var out reviewsResponse
	if err := a.cl.GetJSON(ctx, "reviews", u, &out); err != nil {
		return nil, fmt.Errorf("%w: hostaway: %w", domain.ErrUpstreamUnavailable, err)
	}
	if out.Status != "" && out.Status != "success" {
		return nil, fmt.Errorf("%w: hostaway status %q", domain.ErrUpstreamUnavailable, out.Status)
	}
	return out.Result, nil
}

// Reviews implements domain.Provider.
func (a *Adapter) Reviews(ctx context.Context) []domain.CanonicalReview {
	recs := a.Fetch(ctx)
	out := make([]domain.CanonicalReview, 0, len(recs))
	for _, r := range recs {
		out = append(out, a.Normalize(r))
	}
	return out
}
