package httpserver

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"guest_reviews/internal/domain"
)

// filterParams mirrors the query string of GET /api/reviews. Enumerations and
// the rating range are checked by the validator; numbers, booleans and dates
// are parsed by hand.
type filterParams struct {
	PropertyID string   `validate:"omitempty,max=191"`
	Rating     *float64 `validate:"omitempty,gte=0,lte=10"`
	Category   string   `validate:"omitempty,category"`
	Channel    string   `validate:"omitempty,channel"`
	Status     string   `validate:"omitempty,status"`
	IsApproved *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}

var paramNames = map[string]string{
	"PropertyID": "propertyId",
	"Rating":     "rating",
	"Category":   "category",
	"Channel":    "channel",
	"Status":     "status",
}

// newValidator registers the review enums as validation tags.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	enums := map[string]func(string) bool{
		"category": func(s string) bool { return domain.Category(s).Valid() },
		"channel":  func(s string) bool { return domain.Channel(s).Valid() },
		"status":   func(s string) bool { return domain.Status(s).Valid() },
	}
	for tag, ok := range enums {
		ok := ok
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool { return ok(fl.Field().String()) }); err != nil {
			panic(err)
		}
	}
	return v
}

func (h *Handlers) parseFilters(q url.Values) (domain.ReviewFilters, error) {
	var p filterParams
	p.PropertyID = strings.TrimSpace(q.Get("propertyId"))
	p.Category = q.Get("category")
	p.Channel = q.Get("channel")
	p.Status = q.Get("status")

	if v := q.Get("rating"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.ReviewFilters{}, domain.Invalid("rating", "must be a number")
		}
		p.Rating = &f
	}
	if v := q.Get("isApproved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.ReviewFilters{}, domain.Invalid("isApproved", "must be true or false")
		}
		p.IsApproved = &b
	}
	var err error
	if p.DateFrom, err = parseDate("dateFrom", q.Get("dateFrom")); err != nil {
		return domain.ReviewFilters{}, err
	}
	if p.DateTo, err = parseDate("dateTo", q.Get("dateTo")); err != nil {
		return domain.ReviewFilters{}, err
	}
	if p.DateFrom != nil && p.DateTo != nil && p.DateTo.Before(*p.DateFrom) {
		return domain.ReviewFilters{}, domain.Invalid("dateTo", "must not be before dateFrom")
	}
	if err := h.validate.Struct(p); err != nil {
		return domain.ReviewFilters{}, validationError(err)
	}

	f := domain.ReviewFilters{
		MinRating:  p.Rating,
		IsApproved: p.IsApproved,
		DateFrom:   p.DateFrom,
		DateTo:     p.DateTo,
	}
	if p.PropertyID != "" {
		f.PropertyID = &p.PropertyID
	}
	if p.Category != "" {
		c := domain.Category(p.Category)
		f.Category = &c
	}
	if p.Channel != "" {
		c := domain.Channel(p.Channel)
		f.Channel = &c
	}
	if p.Status != "" {
		s := domain.Status(p.Status)
		f.Status = &s
	}
	return f, nil
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate accepts RFC3339 or a bare date, both read as UTC.
func parseDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.Invalid(field, "must be an RFC3339 timestamp or YYYY-MM-DD")
}

// validationError reports the first failing field as a domain.ValidationError.
func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return domain.Invalid("request", err.Error())
	}
	fe := ves[0]
	name := paramNames[fe.Field()]
	if name == "" {
		name = strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	}
	switch fe.Tag() {
	case "required":
		return domain.Invalid(name, "is required")
	case "category", "channel", "status":
		return domain.Invalid(name, "is not a known "+fe.Tag())
	case "email":
		return domain.Invalid(name, "must be a valid email address")
	case "gte", "lte":
		return domain.Invalid(name, "must be between 0 and 10")
	default:
		return domain.Invalid(name, "is invalid")
	}
}
