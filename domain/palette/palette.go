// Package palette holds the avatar color catalog. Public colors are open to
// guests; locked colors require an authenticated account.
package palette

// Color is one catalog entry.
type Color struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Catalog groups the public and locked color sets.
type Catalog struct {
	Public []Color `json:"public"`
	Locked []Color `json:"locked"`
}

// DefaultColor is applied to accounts created without an explicit choice.
const DefaultColor = "#8A2BE2"

var catalog = Catalog{
	Public: []Color{
		{ID: "violet", Name: "Violet", Hex: "#8A2BE2"},
		{ID: "blue", Name: "Bleu", Hex: "#3B82F6"},
	},
	Locked: []Color{
		{ID: "gold", Name: "Or", Hex: "#FFC93A"},
		{ID: "crimson", Name: "Cramoisi", Hex: "#EF4444"},
	},
}

// All returns the full catalog.
func All() Catalog {
	return catalog
}

// IsPublic reports whether hex is a guest-claimable color.
func IsPublic(hex string) bool {
	for _, c := range catalog.Public {
		if c.Hex == hex {
			return true
		}
	}
	return false
}

// IsKnown reports whether hex appears anywhere in the catalog.
func IsKnown(hex string) bool {
	if IsPublic(hex) {
		return true
	}
	for _, c := range catalog.Locked {
		if c.Hex == hex {
			return true
		}
	}
	return false
}
