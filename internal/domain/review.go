package domain

import (
	"math"
	"time"
)

type Direction string

const (
	GuestToHost Direction = "guest-to-host"
	HostToGuest Direction = "host-to-guest"
)

type Status string

const (
	StatusPublished Status = "published"
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPublished, StatusPending, StatusRejected:
		return true
	}
	return false
}

// Channel identifies the provider a review came from.
type Channel string

const (
	ChannelHostaway Channel = "hostaway"
	ChannelGoogle   Channel = "google"
	ChannelAirbnb   Channel = "airbnb"
	ChannelBooking  Channel = "booking"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelHostaway, ChannelGoogle, ChannelAirbnb, ChannelBooking:
		return true
	}
	return false
}

type Category string

const (
	CategoryCleanliness       Category = "cleanliness"
	CategoryCommunication     Category = "communication"
	CategoryRespectHouseRules Category = "respect_house_rules"
	CategoryCheckIn           Category = "check_in"
	CategoryValue             Category = "value"
	CategoryLocation          Category = "location"
)

var AllCategories = []Category{
	CategoryCleanliness,
	CategoryCommunication,
	CategoryRespectHouseRules,
	CategoryCheckIn,
	CategoryValue,
	CategoryLocation,
}

func (c Category) Valid() bool {
	for _, k := range AllCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Categories holds the six rating axes, each in [0,10]. Zero means "not rated".
type Categories struct {
	Cleanliness       float64 `json:"cleanliness"`
	Communication     float64 `json:"communication"`
	RespectHouseRules float64 `json:"respect_house_rules"`
	CheckIn           float64 `json:"check_in"`
	Value             float64 `json:"value"`
	Location          float64 `json:"location"`
}

func (c Categories) Get(k Category) float64 {
	switch k {
	case CategoryCleanliness:
		return c.Cleanliness
	case CategoryCommunication:
		return c.Communication
	case CategoryRespectHouseRules:
		return c.RespectHouseRules
	case CategoryCheckIn:
		return c.CheckIn
	case CategoryValue:
		return c.Value
	case CategoryLocation:
		return c.Location
	}
	return 0
}

// Set assigns v to axis k. Unknown axes are ignored and reported as false.
func (c *Categories) Set(k Category, v float64) bool {
	switch k {
	case CategoryCleanliness:
		c.Cleanliness = v
	case CategoryCommunication:
		c.Communication = v
	case CategoryRespectHouseRules:
		c.RespectHouseRules = v
	case CategoryCheckIn:
		c.CheckIn = v
	case CategoryValue:
		c.Value = v
	case CategoryLocation:
		c.Location = v
	default:
		return false
	}
	return true
}

// Mean is the arithmetic mean of the positive axes, 0 if none is positive.
func (c Categories) Mean() float64 {
	var sum float64
	n := 0
	for _, k := range AllCategories {
		if v := c.Get(k); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func UniformCategories(v float64) Categories {
	return Categories{
		Cleanliness:       v,
		Communication:     v,
		RespectHouseRules: v,
		CheckIn:           v,
		Value:             v,
		Location:          v,
	}
}

// CanonicalReview is the provider-agnostic review record. Status and IsApproved
// are a projection of the review's ModerationDecision; see Apply.
type CanonicalReview struct {
	ID                  int64      `json:"id"`
	Direction           Direction  `json:"type"`
	Status              Status     `json:"status"`
	OverallRating       float64    `json:"overallRating"`
	Text                string     `json:"publicReview"`
	Categories          Categories `json:"categories"`
	SubmittedAt         time.Time  `json:"submittedAt"`
	GuestName           string     `json:"guestName"`
	PropertyDisplayName string     `json:"listingName"`
	SourceChannel       Channel    `json:"channel"`
	IsApproved          bool       `json:"isApproved"`
	PropertyID          string     `json:"propertyId"`
}

// ReviewFilters are conjunctive; a nil field means "no constraint".
type ReviewFilters struct {
	PropertyID *string
	MinRating  *float64
	Category   *Category
	Channel    *Channel
	Status     *Status
	IsApproved *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Round1 rounds to one decimal place.
func Round1(f float64) float64 { return math.Round(f*10) / 10 }
