package domain

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases name and collapses every whitespace run into one dash.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// AliasTable maps raw slugs that providers produce onto canonical property ids.
type AliasTable map[string]string

// Resolve slugifies name and folds it through the table.
func (t AliasTable) Resolve(name string) string {
	s := Slugify(name)
	if canon, ok := t[s]; ok {
		return canon
	}
	return s
}

// CatalogAliases collapses the naming variants seen across providers for the
// properties in the catalog.
var CatalogAliases = AliasTable{
	"2b-n1-a---29-shoreditch-heights": "2b-n1-a-29-shoreditch-heights",
	"2b-n1-a-–-29-shoreditch-heights": "2b-n1-a-29-shoreditch-heights",
	"2b-n1-a-—-29-shoreditch-heights": "2b-n1-a-29-shoreditch-heights",
	"2b-n1-a-29-shoreditch-heights":   "2b-n1-a-29-shoreditch-heights",
	"luxury-loft-in-manhattan":        "luxury-loft-manhattan",
	"modern-studio-in-brooklyn":       "modern-studio-brooklyn",
	"cozy-apartment-in-queens":        "cozy-apartment-queens",
	"penthouse-with-city-views":       "penthouse-city-views",
}
