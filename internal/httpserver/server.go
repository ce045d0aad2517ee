// internal/httpserver/server.go
//
// HTTP server wiring for the Guess the Country backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access logs, per-IP rate limiting).
//   - Public endpoints: "/", "/health".
//   - Game endpoints under /api, bound to the anonymous session cookie.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Sessions live in a store.Store keyed by the ID inside the cookie token;
//     the game engine only ever sees one *game.Session at a time.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/feedback"
	"github.com/robalobadob/countryguess/internal/fuzzy"
	"github.com/robalobadob/countryguess/internal/game"
	"github.com/robalobadob/countryguess/internal/store"
)

// Catalog is what the HTTP layer needs from the country catalog.
type Catalog interface {
	game.Catalog
	All(ctx context.Context) ([]countries.Country, error)
	ListByTier(ctx context.Context, t countries.Tier) ([]countries.Country, error)
}

// Options configures a Server.
type Options struct {
	ClientOrigin   string
	SessionSecret  string
	SessionTTL     time.Duration
	CookieSecure   bool
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	RevealTarget   bool // include the target name in start/session responses
	RequestTimeout time.Duration
}

// Server bundles router, catalog, game engine, and session store.
type Server struct {
	r       *chi.Mux
	catalog Catalog
	engine  *game.Engine
	store   store.Store
	cookies *sessionCookies
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(cat Catalog, st store.Store, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		r:       chi.NewRouter(),
		catalog: cat,
		engine:  game.NewEngine(cat),
		store:   st,
		cookies: newSessionCookies(opts.SessionSecret, opts.SessionTTL, opts.CookieSecure),
		opts:    opts,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                    // add X-Request-ID
	s.r.Use(chimw.RealIP)                       // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))        // request-scoped zerolog logger
	s.r.Use(accessLog)                          // one line per request
	s.r.Use(chimw.Recoverer)                    // recover from panics
	s.r.Use(chimw.Timeout(opts.RequestTimeout)) // bound handler time
	s.r.Use(jsonContentType)                    // default JSON responses
	s.r.Use(corsFor(opts.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "countryguess",
			"endpoints": []string{
				"/health",
				"GET /api/countries",
				"POST /api/start-game",
				"GET /api/session-data",
				"POST /api/guess",
				"POST /api/restart-game",
				"GET /api/random-country[/{difficulty}]",
				"POST /api/check-guess",
				"POST /api/resolve",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		loaded := false
		if l, ok := s.catalog.(interface{ Loaded() bool }); ok {
			loaded = l.Loaded()
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "catalogLoaded": loaded})
	})

	s.r.Route("/api", func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			r.Use(newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware)
		}

		// Catalog (no session needed)
		r.Get("/countries", s.handleCountries)
		r.Get("/random-country", s.handleRandomCountry)
		r.Get("/random-country/{difficulty}", s.handleRandomCountry)
		r.Post("/check-guess", s.handleCheckGuess)
		r.Post("/resolve", s.handleResolve)

		// Game (session cookie)
		r.Group(func(r chi.Router) {
			r.Use(s.cookies.middleware)
			r.Post("/start-game", s.handleStartGame)
			r.Get("/session-data", s.handleSessionData)
			r.Post("/guess", s.handleGuess)
			r.Post("/restart-game", s.handleRestart)
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFor enables credentialed CORS for a single origin.
func corsFor(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one structured line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reqId", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// ----------------------------- catalog -------------------------------------

// handleCountries lists the catalog, optionally filtered by ?difficulty=.
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	var (
		list []countries.Country
		err  error
	)
	if d := r.URL.Query().Get("difficulty"); d != "" {
		var tier countries.Tier
		if tier, err = countries.ParseTier(d); err == nil {
			list, err = s.catalog.ListByTier(r.Context(), tier)
		}
	} else {
		list, err = s.catalog.All(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleRandomCountry returns a random record (EXPERT when no difficulty given).
func (s *Server) handleRandomCountry(w http.ResponseWriter, r *http.Request) {
	tier := countries.TierExpert
	if d := chi.URLParam(r, "difficulty"); d != "" {
		t, err := countries.ParseTier(d)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tier = t
	}
	c, err := s.catalog.RandomByTier(r.Context(), tier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type checkGuessReq struct {
	UserGuess     string `json:"userGuess"`
	TargetCountry string `json:"targetCountry"`
}

type checkGuessRes struct {
	Guess    countries.Country `json:"guess"`
	Target   countries.Country `json:"target"`
	Feedback feedback.Feedback `json:"feedback"`
}

// handleCheckGuess compares two named countries without touching any session.
func (s *Server) handleCheckGuess(w http.ResponseWriter, r *http.Request) {
	var req checkGuessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}
	guess, err := s.lookup(r.Context(), req.UserGuess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := s.lookup(r.Context(), req.TargetCountry)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkGuessRes{Guess: guess, Target: target, Feedback: feedback.Compute(guess, target)})
}

func (s *Server) lookup(ctx context.Context, name string) (countries.Country, error) {
	c, err := s.catalog.FindByName(ctx, name)
	if errors.Is(err, countries.ErrNotFound) {
		return countries.Country{}, game.ErrUnknownCountry
	}
	return c, err
}

type resolveReq struct {
	Input      string `json:"input"`
	Difficulty string `json:"difficulty"`
}

// handleResolve runs the fuzzy resolver over a tier's names for thin clients.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}
	if fuzzy.IsReserved(req.Input) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reserved_word", Message: "exit and restart are commands, not countries"})
		return
	}
	tier := countries.TierExpert
	if req.Difficulty != "" {
		t, err := countries.ParseTier(req.Difficulty)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tier = t
	}
	list, err := s.catalog.ListByTier(r.Context(), tier)
	if err != nil {
		writeError(w, r, err)
		return
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	writeJSON(w, http.StatusOK, fuzzy.Resolve(req.Input, names))
}

// ------------------------------ GAME ---------------------------------------

type startGameReq struct {
	Difficulty string `json:"difficulty"`
}

type startGameRes struct {
	Message       string         `json:"message"`
	TargetCountry string         `json:"targetCountry,omitempty"`
	Attempts      int            `json:"attempts"`
	Difficulty    countries.Tier `json:"difficulty"`
}

// handleStartGame draws a new target for the caller's session.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}

	var res game.StartResult
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		var err error
		res, err = s.engine.Start(r.Context(), sess, req.Difficulty)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Str("tier", string(res.Tier)).Msg("game started")

	out := startGameRes{Message: res.Message, Attempts: res.Attempts, Difficulty: res.Tier}
	if s.opts.RevealTarget {
		out.TargetCountry = res.TargetCountry
	}
	writeJSON(w, http.StatusOK, out)
}

type sessionDataRes struct {
	TargetCountry string         `json:"targetCountry,omitempty"`
	Attempts      int            `json:"attempts"`
	Difficulty    countries.Tier `json:"difficulty"`
}

// handleSessionData reports the active session, or 404.
func (s *Server) handleSessionData(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), sessionID(r))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	data, ok := sess.Data()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found", Message: "no active game in this session"})
		return
	}
	out := sessionDataRes{Attempts: data.Attempts, Difficulty: data.Tier}
	if s.opts.RevealTarget {
		out.TargetCountry = data.TargetCountry
	}
	writeJSON(w, http.StatusOK, out)
}

type guessReq struct {
	UserGuess string `json:"userGuess"`
}

type guessRes struct {
	Won           bool               `json:"won"`
	Message       string             `json:"message,omitempty"`
	TargetCountry string             `json:"targetCountry,omitempty"`
	Guess         string             `json:"guess"`
	Feedback      *feedback.Feedback `json:"feedback,omitempty"`
	Attempts      int                `json:"attempts"`
}

// handleGuess scores a canonical country name against the session target.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_json", Message: err.Error()})
		return
	}
	name := strings.TrimSpace(req.UserGuess)

	var res game.GuessResult
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		var err error
		res, err = s.engine.Guess(r.Context(), sess, name)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.Won {
		hlog.FromRequest(r).Info().Str("country", res.TargetCountry).Int("attempts", res.Attempts).Msg("game won")
	}
	writeJSON(w, http.StatusOK, guessRes{
		Won:           res.Won,
		Message:       res.Message,
		TargetCountry: res.TargetCountry,
		Guess:         res.Guess.Name,
		Feedback:      res.Feedback,
		Attempts:      res.Attempts,
	})
}

// handleRestart resets the session to not started.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	err := s.store.Update(r.Context(), sessionID(r), func(sess *game.Session) error {
		s.engine.Restart(sess)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game restarted. Choose a difficulty to start a new game."})
}
