package domain

type Price struct {
	PerNight float64 `json:"perNight"`
	Currency string  `json:"currency"`
}

// Property is a catalog entry. AverageRating, TotalReviews and ApprovedReviews
// are computed on read and never persisted.
type Property struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	HouseRules  []string `json:"houseRules"`
	Price       Price    `json:"price"`

	AverageRating   float64 `json:"averageRating"`
	TotalReviews    int     `json:"totalReviews"`
	ApprovedReviews int     `json:"approvedReviews"`
}

type DashboardStats struct {
	TotalReviews            int               `json:"totalReviews"`
	AverageRating           float64           `json:"averageRating"`
	ApprovedReviews         int               `json:"approvedReviews"`
	PendingReviews          int               `json:"pendingReviews"`
	PropertiesCount         int               `json:"propertiesCount"`
	RecentReviews           []CanonicalReview `json:"recentReviews"`
	TopPerformingProperties []Property        `json:"topPerformingProperties"`
	RatingDistribution      map[int]int       `json:"ratingDistribution"`
}
