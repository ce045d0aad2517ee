// internal/countries/raw.go
//
// Raw dataset shape and normalization.
//
// Raw records follow the REST Countries v3.1 layout (only the fields the game
// needs). Every provider returns this shape so the catalog normalizes in one
// place, whether the data came from the network, a snapshot, or the embedded
// default list.

package countries

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider supplies the raw dataset. Implementations may retry or cache as
// they see fit; the catalog calls Fetch at most once per successful load.
type Provider interface {
	Fetch(ctx context.Context) ([]RawCountry, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]RawCountry, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context) ([]RawCountry, error) { return f(ctx) }

// RawName is the "name" object of a REST Countries record.
type RawName struct {
	Common   string `json:"common"`
	Official string `json:"official,omitempty"`
}

// RawCountry is one record as published by REST Countries.
type RawCountry struct {
	Name       RawName   `json:"name"`
	Population int64     `json:"population"`
	Continents []string  `json:"continents"`
	Area       float64   `json:"area"`
	Latlng     []float64 `json:"latlng"`
	UNMember   bool      `json:"unMember"`
}

// Normalize converts raw records into catalog entries, preserving order.
// Any malformed record fails the whole batch.
func Normalize(raw []RawCountry) ([]Country, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty dataset")
	}
	out := make([]Country, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		c, err := normalizeOne(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if _, dup := seen[c.Key()]; dup {
			return nil, fmt.Errorf("record %d: duplicate name %q", i, c.Name)
		}
		seen[c.Key()] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func normalizeOne(r RawCountry) (Country, error) {
	name := strings.TrimSpace(r.Name.Common)
	if name == "" {
		return Country{}, errors.New("missing name")
	}
	if r.Population < 0 {
		return Country{}, fmt.Errorf("%s: negative population", name)
	}
	if r.Area < 0 {
		return Country{}, fmt.Errorf("%s: negative area", name)
	}
	if len(r.Continents) == 0 || strings.TrimSpace(r.Continents[0]) == "" {
		return Country{}, fmt.Errorf("%s: missing continent", name)
	}
	c := Country{
		Name:       name,
		Population: r.Population,
		Area:       r.Area,
		Continent:  strings.TrimSpace(r.Continents[0]),
		UNMember:   r.UNMember,
	}
	// Some territories publish no coordinates; keep them, without a position.
	if len(r.Latlng) == 2 && validLatLng(r.Latlng[0], r.Latlng[1]) {
		c.Position = &Point{Lat: r.Latlng[0], Lon: r.Latlng[1]}
	}
	return c, nil
}

func validLatLng(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
