package app

import (
	"guest_reviews/internal/domain"
)

// Registry is the static property catalog. Review statistics are merged on
// every read and never stored.
type Registry struct {
	catalog []domain.Property
	byID    map[string]int
}

func NewRegistry(catalog []domain.Property) *Registry {
	r := &Registry{catalog: catalog, byID: make(map[string]int, len(catalog))}
	for i, p := range catalog {
		r.byID[p.ID] = i
	}
	return r
}

func (r *Registry) Len() int { return len(r.catalog) }

// Get returns the bare catalog entry.
func (r *Registry) Get(id string) (domain.Property, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Property{}, false
	}
	return cloneProperty(r.catalog[i]), true
}

// List merges per-property statistics computed from reviews onto the catalog.
func (r *Registry) List(reviews []domain.CanonicalReview) []domain.Property {
	type agg struct {
		sum      float64
		total    int
		approved int
	}
	stats := make(map[string]*agg, len(r.catalog))
	for _, rv := range reviews {
		a := stats[rv.PropertyID]
		if a == nil {
			a = &agg{}
			stats[rv.PropertyID] = a
		}
		a.sum += rv.OverallRating
		a.total++
		if rv.IsApproved {
			a.approved++
		}
	}

	out := make([]domain.Property, 0, len(r.catalog))
	for _, p := range r.catalog {
		p = cloneProperty(p)
		if a := stats[p.ID]; a != nil {
			p.AverageRating = domain.Round1(a.sum / float64(a.total))
			p.TotalReviews = a.total
			p.ApprovedReviews = a.approved
		}
		out = append(out, p)
	}
	return out
}

func cloneProperty(p domain.Property) domain.Property {
	p.Images = append([]string(nil), p.Images...)
	p.HouseRules = append([]string(nil), p.HouseRules...)
	p.AverageRating, p.TotalReviews, p.ApprovedReviews = 0, 0, 0
	return p
}

func unsplash(ids ...string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "https://images.unsplash.com/" + id + "?w=800&h=600&fit=crop"
	}
	return out
}

const (
	imgLiving  = "photo-1560448204-e02f11c3d0e2"
	imgBedroom = "photo-1522708323590-d24dbb6b0267"
	imgLoft    = "photo-1502672260266-1c1ef2d93688"
	imgKitchen = "photo-1484154218962-a197022b5858"
	imgLounge  = "photo-1560448204-603b3fc33ddc"
)

// DefaultCatalog is the property catalog served by the API.
func DefaultCatalog() []domain.Property {
	return []domain.Property{
		{
			ID:          "2b-n1-a-29-shoreditch-heights",
			Name:        "2B N1 A - 29 Shoreditch Heights",
			Address:     "29 Shoreditch Heights, London",
			City:        "London",
			Country:     "UK",
			Images:      unsplash(imgLiving, imgBedroom, imgLoft, imgKitchen, imgLounge),
			Description: "A stunning 2-bedroom apartment in the heart of Shoreditch, featuring modern amenities and stylish decor. Perfect for business travelers and tourists exploring London's vibrant East End.",
			HouseRules: []string{
				"No smoking inside the property",
				"No pets allowed",
				"Check-in after 3:00 PM",
				"Check-out before 11:00 AM",
				"No parties or events",
				"Quiet hours after 10:00 PM",
			},
			Price: domain.Price{PerNight: 180, Currency: "GBP"},
		},
		{
			ID:          "luxury-loft-manhattan",
			Name:        "Luxury Loft in Manhattan",
			Address:     "123 Broadway, New York",
			City:        "New York",
			Country:     "USA",
			Images:      unsplash(imgLoft, imgBedroom, imgLiving, imgKitchen, imgLounge),
			Description: "Experience the ultimate Manhattan lifestyle in this luxurious loft with floor-to-ceiling windows, high-end finishes, and breathtaking city views. Ideal for discerning guests seeking comfort and sophistication.",
			HouseRules: []string{
				"No smoking anywhere on the property",
				"Pets considered with prior approval",
				"Check-in after 4:00 PM",
				"Check-out before 12:00 PM",
				"Maximum 4 guests",
				"No loud music after 9:00 PM",
			},
			Price: domain.Price{PerNight: 450, Currency: "USD"},
		},
		{
			ID:          "modern-studio-brooklyn",
			Name:        "Modern Studio in Brooklyn",
			Address:     "456 Park Ave, Brooklyn",
			City:        "Brooklyn",
			Country:     "USA",
			Images:      unsplash(imgKitchen, imgLiving, imgLoft, imgBedroom, imgLounge),
			Description: "Chic and contemporary studio apartment in trendy Brooklyn, featuring smart home technology and designer furniture. Perfect for solo travelers or couples exploring NYC's cultural scene.",
			HouseRules: []string{
				"No smoking",
				"No pets",
				"Check-in after 2:00 PM",
				"Check-out before 10:00 AM",
				"Maximum 2 guests",
				"Respect building quiet hours",
			},
			Price: domain.Price{PerNight: 220, Currency: "USD"},
		},
		{
			ID:          "cozy-apartment-queens",
			Name:        "Cozy Apartment in Queens",
			Address:     "789 Main St, Queens",
			City:        "Queens",
			Country:     "USA",
			Images:      unsplash(imgLounge, imgKitchen, imgLoft, imgBedroom, imgLiving),
			Description: "A warm and inviting apartment in Queens offering comfort and convenience. Close to public transportation and local attractions, perfect for budget-conscious travelers who want to explore NYC.",
			HouseRules: []string{
				"No smoking inside",
				"Pets welcome with deposit",
				"Check-in after 3:00 PM",
				"Check-out before 11:00 AM",
				"Maximum 3 guests",
				"Keep noise levels reasonable",
			},
			Price: domain.Price{PerNight: 150, Currency: "USD"},
		},
		{
			ID:          "penthouse-city-views",
			Name:        "Penthouse with City Views",
			Address:     "321 High Rise, Manhattan",
			City:        "Manhattan",
			Country:     "USA",
			Images:      unsplash(imgBedroom, imgLiving, imgKitchen, imgLoft, imgLounge),
			Description: "Ultra-luxurious penthouse with panoramic city views, premium amenities, and exclusive access to building facilities. The ultimate Manhattan experience for those who demand the finest accommodations.",
			HouseRules: []string{
				"No smoking anywhere on premises",
				"No pets allowed",
				"Check-in after 5:00 PM",
				"Check-out before 12:00 PM",
				"Maximum 6 guests",
				"Formal attire required in common areas",
				"No parties or events without approval",
			},
			Price: domain.Price{PerNight: 850, Currency: "USD"},
		},
	}
}
