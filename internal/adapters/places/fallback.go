package places

// Fallback is the fixed dataset served when the places API cannot be used.
func Fallback() []Place {
	return []Place{
		{
			PlaceID:          "fallback-luxury-loft-manhattan",
			Name:             "Luxury Loft in Manhattan",
			Rating:           4.5,
			UserRatingsTotal: 1,
			FormattedAddress: "123 Broadway, New York",
			Reviews: []Review{{
				AuthorName: "Jennifer Martinez",
				Language:   "en",
				Rating:     4.5,
				Text:       "Excellent location and beautiful property. The host was very accommodating and the check-in process was smooth.",
				Time:       1702377000, // 2023-12-12T10:30:00Z
			}},
		},
		{
			PlaceID:          "fallback-modern-studio-brooklyn",
			Name:             "Modern Studio in Brooklyn",
			Rating:           4,
			UserRatingsTotal: 1,
			FormattedAddress: "456 Park Ave, Brooklyn",
			Reviews: []Review{{
				AuthorName: "Robert Kim",
				Language:   "en",
				Rating:     4,
				Text:       "Great place to stay! Clean, comfortable, and well-equipped. The neighborhood is quiet and safe.",
				Time:       1702223100, // 2023-12-10T15:45:00Z
			}},
		},
	}
}
