// internal/countries/types.go
//
// Core type definitions for the country catalog.
// Defines:
//   - Country: the canonical, immutable record shared by every session.
//   - Point: a latitude/longitude pair in degrees.
//   - Tier: named difficulty filter over the catalog.

package countries

import "strings"

// Point is a WGS84-ish coordinate pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Country is the normalized record used throughout the game.
// Records are created once at catalog load and never mutated.
type Country struct {
	Name       string  `json:"name"`               // Display name; matching is case-insensitive.
	Population int64   `json:"population"`         // >= 0
	Area       float64 `json:"area"`               // km², >= 0
	Continent  string  `json:"continent"`          // First continent label of the raw record.
	Position   *Point  `json:"position,omitempty"` // nil when the provider has no coordinates.
	UNMember   bool    `json:"unMember"`           // Used for difficulty tiering.
}

// Key returns the case-folded lookup key for the country name.
func (c Country) Key() string { return nameKey(c.Name) }

// SameAs reports whether c and other are the same catalog entry.
func (c Country) SameAs(other Country) bool { return c.Key() == other.Key() }

func nameKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Tier is a named difficulty filter over the catalog.
type Tier string

const (
	TierEasy       Tier = "EASY"        // UN members with population above EasyPopulationThreshold.
	TierEasyEurope Tier = "EASY_EUROPE" // Every European entry, any population.
	TierHard       Tier = "HARD"        // Every UN member.
	TierExpert     Tier = "EXPERT"      // The whole catalog, territories included.
)

// EasyPopulationThreshold is the exclusive lower bound for TierEasy.
const EasyPopulationThreshold = 100_000_000

// Tiers lists every recognized tier in presentation order.
func Tiers() []Tier {
	return []Tier{TierEasyEurope, TierEasy, TierHard, TierExpert}
}

// ParseTier maps user input to a Tier. It is case-insensitive and accepts
// hyphens in place of underscores ("easy-europe").
func ParseTier(s string) (Tier, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch t := Tier(norm); t {
	case TierEasy, TierEasyEurope, TierHard, TierExpert:
		return t, nil
	}
	return "", &TierError{Input: s}
}

// Includes reports whether c belongs to the candidate set of t.
func (t Tier) Includes(c Country) bool {
	switch t {
	case TierEasy:
		return c.UNMember && c.Population > EasyPopulationThreshold
	case TierEasyEurope:
		return c.Continent == "Europe"
	case TierHard:
		return c.UNMember
	case TierExpert:
		return true
	}
	return false
}
