// internal/config/config.go
//
// Server configuration from environment variables.
// A `.env` file, when present, is loaded first (godotenv); variables already
// set in the environment win.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every server setting.
type Config struct {
	Port         string
	LogLevel     string
	LogPretty    bool
	ClientOrigin string

	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	CountriesSource string // "remote" | "embedded"
	CountriesAPIURL string
	SnapshotPath    string // empty disables the snapshot cache
	SnapshotMaxAge  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	RevealTarget     bool
	TelemetryEnabled bool
}

// Load reads .env (if any) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function (os.Getenv in production).
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	var (
		c    Config
		errs []string
	)
	boolVar := func(k string, def bool) bool {
		v, err := strconv.ParseBool(get(k, strconv.FormatBool(def)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", k, err))
		}
		return v
	}
	durVar := func(k, def string) time.Duration {
		v, err := time.ParseDuration(get(k, def))
		if err != nil || v < 0 {
			errs = append(errs, fmt.Sprintf("%s: invalid duration %q", k, get(k, def)))
		}
		return v
	}

	c.Port = get("PORT", "3000")
	c.LogLevel = get("LOG_LEVEL", "info")
	c.LogPretty = boolVar("LOG_PRETTY", false)
	c.ClientOrigin = get("CLIENT_ORIGIN", "http://localhost:5173")

	c.SessionSecret = get("SESSION_SECRET", "dev_secret_change_me")
	c.SessionTTL = durVar("SESSION_TTL", "24h")
	c.CookieSecure = boolVar("COOKIE_SECURE", false)

	c.CountriesSource = strings.ToLower(get("COUNTRIES_SOURCE", "remote"))
	if c.CountriesSource != "remote" && c.CountriesSource != "embedded" {
		errs = append(errs, fmt.Sprintf("COUNTRIES_SOURCE: want remote or embedded, got %q", c.CountriesSource))
	}
	c.CountriesAPIURL = get("COUNTRIES_API_URL", "https://restcountries.com")
	c.SnapshotPath = get("SNAPSHOT_PATH", "./data/countries.db")
	if strings.EqualFold(c.SnapshotPath, "off") {
		c.SnapshotPath = ""
	}
	c.SnapshotMaxAge = durVar("SNAPSHOT_MAX_AGE", "168h")

	rps, err := strconv.ParseFloat(get("RATE_LIMIT_RPS", "10"), 64)
	if err != nil || rps < 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_RPS: invalid %q", get("RATE_LIMIT_RPS", "10")))
	}
	c.RateLimitRPS = rps
	burst, err := strconv.Atoi(get("RATE_LIMIT_BURST", "20"))
	if err != nil || burst < 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT_BURST: invalid %q", get("RATE_LIMIT_BURST", "20")))
	}
	c.RateLimitBurst = burst

	c.RevealTarget = boolVar("REVEAL_TARGET", true)
	c.TelemetryEnabled = boolVar("TELEMETRY_ENABLED", false)

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return c, nil
}
