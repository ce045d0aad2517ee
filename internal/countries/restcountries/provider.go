// internal/countries/restcountries/provider.go
//
// REST Countries (https://restcountries.com) dataset provider.
//
// Behavior:
//   - GET {BaseURL}/v3.1/all?fields=name,population,continents,area,latlng,unMember
//   - Transient failures (network errors, 5xx, 429) are retried with
//     exponential backoff, up to MaxTries attempts.
//   - Other non-2xx statuses and undecodable bodies fail immediately.

package restcountries

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/internal/countries"
)

// DefaultBaseURL is the public REST Countries endpoint.
const DefaultBaseURL = "https://restcountries.com"

const fields = "name,population,continents,area,latlng,unMember"

// maxBody bounds the response size (the full dataset is well under 1 MiB).
const maxBody = 8 << 20

// Provider fetches the full dataset over HTTP.
type Provider struct {
	BaseURL    string
	Client     *http.Client
	MaxTries   uint
	InitialGap time.Duration // first backoff interval
}

// New returns a Provider with sensible defaults for baseURL.
func New(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 15 * time.Second},
		MaxTries:   4,
		InitialGap: 500 * time.Millisecond,
	}
}

// Fetch satisfies countries.Provider.
func (p *Provider) Fetch(ctx context.Context) ([]countries.RawCountry, error) {
	eb := backoff.NewExponentialBackOff()
	if p.InitialGap > 0 {
		eb.InitialInterval = p.InitialGap
	}
	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	attempt := 0
	return backoff.Retry(ctx, func() ([]countries.RawCountry, error) {
		attempt++
		out, err := p.fetchOnce(ctx)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("restcountries fetch")
		}
		return out, err
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(tries))
}

func (p *Provider) fetchOnce(ctx context.Context) ([]countries.RawCountry, error) {
	url := p.BaseURL + "/v3.1/all?fields=" + fields
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return nil, fmt.Errorf("restcountries: status %d", res.StatusCode)
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, backoff.Permanent(fmt.Errorf("restcountries: status %d", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, err
	}
	var out []countries.RawCountry
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("restcountries: decode: %w", err))
	}
	return out, nil
}
