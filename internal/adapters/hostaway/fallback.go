package hostaway

func ptrF(f float64) *float64 { return &f }

// Fallback is the fixed dataset served when the API cannot be reached.
func Fallback() []Record {
	return []Record{
		{
			ID:           7453,
			Type:         "host-to-guest",
			Status:       "published",
			Rating:       nil,
			PublicReview: "Shane and family are wonderful! Would definitely host again :)",
			ReviewCategory: []CategoryRating{
				{Category: "cleanliness", Rating: 10},
				{Category: "communication", Rating: 10},
				{Category: "respect_house_rules", Rating: 10},
			},
			SubmittedAt: "2020-08-21 22:45:14",
			GuestName:   "Shane Finkelstein",
			ListingName: "2B N1 A - 29 Shoreditch Heights",
		},
		{
			ID:           7454,
			Type:         "guest-to-host",
			Status:       "published",
			Rating:       ptrF(9),
			PublicReview: "Amazing stay! The apartment was spotless and the location was perfect. Highly recommend!",
			ReviewCategory: []CategoryRating{
				{Category: "cleanliness", Rating: 10},
				{Category: "communication", Rating: 9},
				{Category: "respect_house_rules", Rating: 9},
				{Category: "check_in", Rating: 10},
				{Category: "value", Rating: 8},
				{Category: "location", Rating: 10},
			},
			SubmittedAt: "2023-12-15 14:30:22",
			GuestName:   "Sarah Johnson",
			ListingName: "Luxury Loft in Manhattan",
		},
		{
			ID:           7455,
			Type:         "guest-to-host",
			Status:       "published",
			Rating:       ptrF(8),
			PublicReview: "Great place with excellent amenities. The host was very responsive and helpful.",
			ReviewCategory: []CategoryRating{
				{Category: "cleanliness", Rating: 8},
				{Category: "communication", Rating: 9},
				{Category: "respect_house_rules", Rating: 8},
				{Category: "check_in", Rating: 9},
				{Category: "value", Rating: 7},
				{Category: "location", Rating: 8},
			},
			SubmittedAt: "2023-12-10 09:15:45",
			GuestName:   "Michael Chen",
			ListingName: "Modern Studio in Brooklyn",
		},
		{
			ID:           7456,
			Type:         "guest-to-host",
			Status:       "pending",
			Rating:       ptrF(7),
			PublicReview: "Good location but the apartment was a bit noisy. Overall decent stay.",
			ReviewCategory: []CategoryRating{
				{Category: "cleanliness", Rating: 7},
				{Category: "communication", Rating: 8},
				{Category: "respect_house_rules", Rating: 7},
				{Category: "check_in", Rating: 8},
				{Category: "value", Rating: 6},
				{Category: "location", Rating: 9},
			},
			SubmittedAt: "2023-12-08 16:45:12",
			GuestName:   "Emma Wilson",
			ListingName: "Cozy Apartment in Queens",
		},
		{
			ID:           7457,
			Type:         "guest-to-host",
			Status:       "published",
			Rating:       ptrF(10),
			PublicReview: "Absolutely perfect! Everything exceeded our expectations. Will definitely book again.",
			ReviewCategory: []CategoryRating{
				{Category: "cleanliness", Rating: 10},
				{Category: "communication", Rating: 10},
				{Category: "respect_house_rules", Rating: 10},
				{Category: "check_in", Rating: 10},
				{Category: "value", Rating: 10},
				{Category: "location", Rating: 10},
			},
			SubmittedAt: "2023-12-05 11:20:33",
			GuestName:   "David Rodriguez",
			ListingName: "Penthouse with City Views",
		},
	}
}
