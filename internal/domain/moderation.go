package domain

import "time"

// ModerationDecision is the durable verdict for one review id.
// Absence of a decision means the review is pending.
type ModerationDecision struct {
	ReviewID    int64     `json:"id"`
	IsApproved  bool      `json:"isApproved"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// StatusFor derives (status, isApproved) from an optional decision.
func StatusFor(d ModerationDecision, ok bool) (Status, bool) {
	switch {
	case !ok:
		return StatusPending, false
	case d.IsApproved:
		return StatusPublished, true
	default:
		return StatusRejected, false
	}
}

// Apply overwrites the review's moderation projection from the decision store.
func (r *CanonicalReview) Apply(d ModerationDecision, ok bool) {
	r.Status, r.IsApproved = StatusFor(d, ok)
}

// Decisions is the in-memory decision map keyed by review id.
type Decisions map[int64]ModerationDecision

func (ds Decisions) Lookup(id int64) (ModerationDecision, bool) {
	d, ok := ds[id]
	return d, ok
}

func (ds Decisions) Clone() Decisions {
	out := make(Decisions, len(ds))
	for k, v := range ds {
		out[k] = v
	}
	return out
}
