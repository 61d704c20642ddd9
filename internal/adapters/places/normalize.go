package places

import (
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"guest_reviews/internal/domain"
)

// IDOffset keeps synthesized ids clear of the property-management id space.
const IDOffset = 10000

// idSpace keeps ids below 2^53 so JSON clients read them exactly.
const idSpace = 1 << 50

// reviewID derives a stable id from the place and the review's author and
// time, so the same review keeps its id (and its moderation decision) across
// refreshes.
func reviewID(placeID string, r Review) int64 {
	sum := xxhash.Sum64String(placeID + "\x00" + r.AuthorName + "\x00" + strconv.FormatInt(r.Time, 10))
	return IDOffset + int64(sum%idSpace)
}

// scale10 maps a 1-5 star rating onto [0,10].
func scale10(stars float64) float64 {
	if stars <= 0 {
		return 0
	}
	return math.Min(stars/5*10, 10)
}

// Normalize maps every review of a place. The provider has no per-category
// breakdown, so all six axes get round(rating/5*10).
func (a *Adapter) Normalize(p Place) []domain.CanonicalReview {
	out := make([]domain.CanonicalReview, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		overall := scale10(r.Rating)
		out = append(out, domain.CanonicalReview{
			ID:                  reviewID(p.PlaceID, r),
			Direction:           domain.GuestToHost,
			Status:              domain.StatusPending,
			OverallRating:       overall,
			Text:                r.Text,
			Categories:          domain.UniformCategories(math.Round(overall)),
			SubmittedAt:         time.Unix(r.Time, 0).UTC(),
			GuestName:           r.AuthorName,
			PropertyDisplayName: p.Name,
			SourceChannel:       domain.ChannelGoogle,
			PropertyID:          a.aliases.Resolve(p.Name),
		})
	}
	return out
}
