package app_test

import (
	"testing"

	"guest_reviews/internal/app"
	"guest_reviews/internal/domain"
)

func TestRegistry_AliasTargetsExistInCatalog(t *testing.T) {
	reg := app.NewRegistry(app.DefaultCatalog())
	for alias, canon := range domain.CatalogAliases {
		if _, ok := reg.Get(canon); !ok {
			t.Errorf("alias %q points at %q which is not in the catalog", alias, canon)
		}
	}
}

func TestRegistry_DisplayNamesResolveToOwnID(t *testing.T) {
	for _, p := range app.DefaultCatalog() {
		if got := domain.CatalogAliases.Resolve(p.Name); got != p.ID {
			t.Errorf("%q resolves to %q, want %q", p.Name, got, p.ID)
		}
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	reg := app.NewRegistry(app.DefaultCatalog())
	p, ok := reg.Get("penthouse-city-views")
	if !ok || len(p.HouseRules) != 7 || p.Price.PerNight != 850 || p.Price.Currency != "USD" {
		t.Fatalf("unexpected entry: %+v", p)
	}
	p.HouseRules[0] = "mutated"
	again, _ := reg.Get("penthouse-city-views")
	if again.HouseRules[0] == "mutated" {
		t.Fatalf("Get leaked the catalog's backing array")
	}
	if _, ok := reg.Get("nope"); ok {
		t.Fatalf("unknown id found")
	}
}
