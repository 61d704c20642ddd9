package hostaway

import (
	"time"

	"github.com/rs/zerolog/log"

	"guest_reviews/internal/domain"
)

var submittedLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

func parseSubmitted(s string) (time.Time, bool) {
	for _, layout := range submittedLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Normalize maps one native record. Categories missing from the record stay
// 0; the overall rating is the mean of the positive categories, or the
// provider rating when no category is positive.
func (a *Adapter) Normalize(r Record) domain.CanonicalReview {
	var cats domain.Categories
	for _, c := range r.ReviewCategory {
		cats.Set(domain.Category(c.Category), c.Rating)
	}

	overall := cats.Mean()
	if overall == 0 && r.Rating != nil && *r.Rating > 0 {
		overall = *r.Rating
	}

	dir := domain.Direction(r.Type)
	if dir != domain.HostToGuest {
		dir = domain.GuestToHost
	}

	submitted, ok := parseSubmitted(r.SubmittedAt)
	if !ok {
		log.Warn().Int64("id", r.ID).Str("submittedAt", r.SubmittedAt).Msg("unparsable hostaway timestamp")
	}

	return domain.CanonicalReview{
		ID:                  r.ID,
		Direction:           dir,
		Status:              domain.StatusPending,
		OverallRating:       overall,
		Text:                r.PublicReview,
		Categories:          cats,
		SubmittedAt:         submitted,
		GuestName:           r.GuestName,
		PropertyDisplayName: r.ListingName,
		SourceChannel:       domain.ChannelHostaway,
		IsApproved:          false,
		PropertyID:          a.aliases.Resolve(r.ListingName),
	}
}
