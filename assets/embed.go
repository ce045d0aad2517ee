// Package assets embeds a small default country dataset so the server and
// tests run without network access.
package assets

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/robalobadob/countryguess/internal/countries"
)

//go:embed countries.json
var countriesJSON []byte

// Provider serves the embedded dataset. It satisfies countries.Provider.
type Provider struct{}

// Fetch decodes the embedded countries.json.
func (Provider) Fetch(ctx context.Context) ([]countries.RawCountry, error) {
	return Decode(countriesJSON)
}

// Raw returns a copy of the embedded JSON document.
func Raw() []byte { return bytes.Clone(countriesJSON) }

// Decode parses a REST Countries style JSON array.
func Decode(b []byte) ([]countries.RawCountry, error) {
	var out []countries.RawCountry
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode countries: %w", err)
	}
	return out, nil
}
