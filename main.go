// main.go
//
// Guess the Country HTTP server.
//
// Startup:
//   1. Load configuration (.env + environment).
//   2. Configure zerolog (level, optional console output) and tracing.
//   3. Build the country catalog from the configured source, optionally
//      behind the SQLite snapshot cache, and warm it in the background.
//   4. Serve the API until SIGINT/SIGTERM, then shut down gracefully.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/assets"
	"github.com/robalobadob/countryguess/internal/config"
	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/countries/restcountries"
	"github.com/robalobadob/countryguess/internal/countries/snapshot"
	"github.com/robalobadob/countryguess/internal/httpserver"
	"github.com/robalobadob/countryguess/internal/store"
	"github.com/robalobadob/countryguess/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TelemetryEnabled {
		shutdown, err := telemetry.Setup(ctx, telemetry.Options{CountriesSource: cfg.CountriesSource})
		if err != nil {
			log.Fatal().Err(err).Msg("telemetry setup")
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(sctx)
		}()
	}

	provider, closeProvider, err := buildProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("country data source")
	}
	defer closeProvider()

	catalog := countries.NewCatalog(provider)
	go func() {
		// Failure is not fatal; the first request that needs data retries.
		if err := catalog.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("catalog warm-up failed")
		}
	}()

	sessions := store.NewMemoryStore(cfg.SessionTTL)
	go sessions.RunSweeper(ctx, time.Minute)

	srv := httpserver.New(catalog, sessions, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		SessionSecret:  cfg.SessionSecret,
		SessionTTL:     cfg.SessionTTL,
		CookieSecure:   cfg.CookieSecure,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		RevealTarget:   cfg.RevealTarget,
	})

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = hs.Shutdown(sctx)
	}()

	log.Info().Str("port", cfg.Port).Str("source", cfg.CountriesSource).Msg("starting countryguess server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// buildProvider selects the dataset source described by cfg.
func buildProvider(cfg config.Config) (countries.Provider, func(), error) {
	noop := func() {}
	if cfg.CountriesSource == "embedded" {
		return assets.Provider{}, noop, nil
	}

	upstream := restcountries.New(cfg.CountriesAPIURL)
	if cfg.SnapshotPath == "" {
		return upstream, noop, nil
	}
	st, err := snapshot.Open(cfg.SnapshotPath)
	if err != nil {
		return nil, noop, err
	}
	p := &snapshot.Provider{
		Upstream: upstream,
		Store:    st,
		Source:   upstream.BaseURL,
		MaxAge:   cfg.SnapshotMaxAge,
	}
	return p, func() { _ = st.Close() }, nil
}
