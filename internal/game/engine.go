// internal/game/engine.go
//
// Session state machine for one player's game.
// Responsibilities:
//   - Start games at a difficulty tier (always allowed; overwrites).
//   - Validate and score guesses against the stored target.
//   - Track state transitions: not_started -> active -> won, and restarts.
//
// Notes:
//   - Targets and guesses come from the Catalog interface (countries.Catalog).
//   - Scoring is delegated to the feedback package.
//   - Failed operations leave the session untouched.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/feedback"
	"github.com/robalobadob/countryguess/internal/telemetry"
)

// Catalog is the subset of the country catalog the engine needs.
type Catalog interface {
	FindByName(ctx context.Context, name string) (countries.Country, error)
	RandomByTier(ctx context.Context, t countries.Tier) (countries.Country, error)
}

// Engine applies game operations to sessions.
type Engine struct {
	catalog Catalog
	tracer  trace.Tracer
	now     func() time.Time
}

// NewEngine returns an Engine drawing countries from cat.
func NewEngine(cat Catalog) *Engine {
	return &Engine{
		catalog: cat,
		tracer:  telemetry.Tracer("game"),
		now:     time.Now,
	}
}

// Start begins a new game at the named tier, replacing whatever the session
// held. Errors: countries.ErrInvalidTier, countries.ErrEmptyTier, or a
// *countries.DataSourceError from the catalog load.
func (e *Engine) Start(ctx context.Context, s *Session, tierName string) (StartResult, error) {
	ctx, span := e.tracer.Start(ctx, "game.start")
	defer span.End()
	span.SetAttributes(attribute.String("tier.input", tierName))

	tier, err := countries.ParseTier(tierName)
	if err != nil {
		span.RecordError(err)
		return StartResult{}, err
	}
	target, err := e.catalog.RandomByTier(ctx, tier)
	if err != nil {
		span.RecordError(err)
		return StartResult{}, fmt.Errorf("start %s: %w", tier, err)
	}

	*s = Session{
		State:     StateActive,
		Tier:      tier,
		Target:    &target,
		Attempts:  0,
		StartedAt: e.now().UTC(),
	}
	span.SetAttributes(attribute.String("tier", string(tier)))
	log.Debug().Str("tier", string(tier)).Msg("game started")

	return StartResult{
		Message:       fmt.Sprintf("Game started at %s difficulty. Guess the country!", tier),
		TargetCountry: target.Name,
		Attempts:      0,
		Tier:          tier,
	}, nil
}

// Guess scores a resolved country name against the session target.
//
// Validation rules:
//   - Session must be active (ErrNoActiveGame).
//   - Name must exist in the catalog (ErrUnknownCountry, attempts unchanged).
//
// State transitions:
//   - Name equal to the target (case-insensitive) -> won.
//   - Otherwise the session stays active and feedback is returned.
func (e *Engine) Guess(ctx context.Context, s *Session, resolvedName string) (GuessResult, error) {
	ctx, span := e.tracer.Start(ctx, "game.guess")
	defer span.End()

	s.normalize()
	if s.State != StateActive || s.Target == nil {
		span.RecordError(ErrNoActiveGame)
		return GuessResult{}, ErrNoActiveGame
	}

	guess, err := e.catalog.FindByName(ctx, resolvedName)
	if errors.Is(err, countries.ErrNotFound) {
		span.RecordError(ErrUnknownCountry)
		return GuessResult{}, fmt.Errorf("%w: %q", ErrUnknownCountry, resolvedName)
	}
	if err != nil {
		span.RecordError(err)
		return GuessResult{}, err
	}

	s.Attempts++
	span.SetAttributes(
		attribute.String("tier", string(s.Tier)),
		attribute.Int("attempts", s.Attempts),
	)

	if guess.SameAs(*s.Target) {
		s.State = StateWon
		span.SetAttributes(attribute.Bool("won", true))
		log.Info().Str("tier", string(s.Tier)).Int("attempts", s.Attempts).Msg("game won")
		return GuessResult{
			Won:           true,
			Message:       winMessage(s.Target.Name, s.Attempts),
			TargetCountry: s.Target.Name,
			Guess:         guess,
			Attempts:      s.Attempts,
		}, nil
	}

	fb := feedback.Compute(guess, *s.Target)
	span.SetAttributes(attribute.Bool("won", false))
	return GuessResult{
		Guess:    guess,
		Feedback: &fb,
		Attempts: s.Attempts,
	}, nil
}

// Restart resets the session to not started. Idempotent.
func (e *Engine) Restart(s *Session) {
	*s = Session{State: StateNotStarted}
}

func winMessage(name string, attempts int) string {
	noun := "attempts"
	if attempts == 1 {
		noun = "attempt"
	}
	return fmt.Sprintf("Congratulations! You guessed %s in %d %s.", name, attempts, noun)
}
