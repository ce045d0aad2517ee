// Package client is a typed HTTP client for the Guess the Country API.
//
// A Client keeps a cookie jar so consecutive calls share one server session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/feedback"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string // "error" field of the JSON body
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server: %d %s", e.Status, e.Code)
}

// Client talks to one server.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client for baseURL (e.g. "http://localhost:3000").
func New(baseURL string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

// StartResponse is the body of POST /api/start-game.
type StartResponse struct {
	Message       string         `json:"message"`
	TargetCountry string         `json:"targetCountry,omitempty"`
	Attempts      int            `json:"attempts"`
	Difficulty    countries.Tier `json:"difficulty"`
}

// GuessResponse is the body of POST /api/guess.
type GuessResponse struct {
	Won           bool               `json:"won"`
	Message       string             `json:"message,omitempty"`
	TargetCountry string             `json:"targetCountry,omitempty"`
	Guess         string             `json:"guess"`
	Feedback      *feedback.Feedback `json:"feedback,omitempty"`
	Attempts      int                `json:"attempts"`
}

// SessionData is the body of GET /api/session-data.
type SessionData struct {
	TargetCountry string         `json:"targetCountry,omitempty"`
	Attempts      int            `json:"attempts"`
	Difficulty    countries.Tier `json:"difficulty"`
}

// Countries lists the catalog, filtered by tier when tier is non-empty.
func (c *Client) Countries(ctx context.Context, tier countries.Tier) ([]countries.Country, error) {
	path := "/api/countries"
	if tier != "" {
		path += "?difficulty=" + url.QueryEscape(string(tier))
	}
	var out []countries.Country
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

// CountryNames returns the display names of the tier's candidate set.
func (c *Client) CountryNames(ctx context.Context, tier countries.Tier) ([]string, error) {
	list, err := c.Countries(ctx, tier)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, ct := range list {
		names[i] = ct.Name
	}
	return names, nil
}

// StartGame starts a game at tier in this client's session.
func (c *Client) StartGame(ctx context.Context, tier countries.Tier) (StartResponse, error) {
	var out StartResponse
	err := c.do(ctx, http.MethodPost, "/api/start-game", map[string]string{"difficulty": string(tier)}, &out)
	return out, err
}

// Guess submits a canonical country name for the active game.
func (c *Client) Guess(ctx context.Context, name string) (GuessResponse, error) {
	var out GuessResponse
	err := c.do(ctx, http.MethodPost, "/api/guess", map[string]string{"userGuess": name}, &out)
	return out, err
}

// SessionData reports the active game; a 404 APIError means none.
func (c *Client) SessionData(ctx context.Context) (SessionData, error) {
	var out SessionData
	err := c.do(ctx, http.MethodGet, "/api/session-data", nil, &out)
	return out, err
}

// Restart resets this client's session to not started.
func (c *Client) Restart(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/restart-game", struct{}{}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode, Code: http.StatusText(res.StatusCode)}
		var eb struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(res.Body).Decode(&eb) == nil && eb.Error != "" {
			apiErr.Code, apiErr.Message = eb.Error, eb.Message
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
