// internal/game/types.go
//
// Core type definitions for the game session state machine.
// Defines:
//   - State: lifecycle of one session (not_started -> active -> won).
//   - Session: state for a single player's game.
//   - StartResult / GuessResult / SessionData: operation outputs.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/feedback"
)

// State is the lifecycle stage of a session.
type State string

const (
	StateNotStarted State = "not_started"
	StateActive     State = "active"
	StateWon        State = "won"
)

var (
	// ErrNoActiveGame is returned when a guess arrives outside an active game.
	ErrNoActiveGame = errors.New("no active game")

	// ErrUnknownCountry means the resolved name is not in the catalog.
	// The attempt counter is left unchanged.
	ErrUnknownCountry = errors.New("unknown country")
)

// Session holds the state of one player's game. The zero value is a
// not-started session. A Session is owned by a single caller; the engine
// performs no locking.
type Session struct {
	State     State              `json:"state"`
	Tier      countries.Tier     `json:"tier,omitempty"`
	Target    *countries.Country `json:"target,omitempty"`
	Attempts  int                `json:"attempts"`
	StartedAt time.Time          `json:"startedAt,omitempty"`
}

// normalize treats the zero State as not started.
func (s *Session) normalize() {
	if s.State == "" {
		s.State = StateNotStarted
	}
}

// Data reports the target and attempts while the session is active.
func (s *Session) Data() (SessionData, bool) {
	if s.State != StateActive || s.Target == nil {
		return SessionData{}, false
	}
	return SessionData{TargetCountry: s.Target.Name, Attempts: s.Attempts, Tier: s.Tier}, true
}

// SessionData is the externally visible view of an active session.
type SessionData struct {
	TargetCountry string         `json:"targetCountry"`
	Attempts      int            `json:"attempts"`
	Tier          countries.Tier `json:"difficulty"`
}

// StartResult is returned by Engine.Start.
type StartResult struct {
	Message       string         `json:"message"`
	TargetCountry string         `json:"targetCountry"`
	Attempts      int            `json:"attempts"`
	Tier          countries.Tier `json:"difficulty"`
}

// GuessResult is returned by Engine.Guess. Exactly one of Won or Feedback
// is meaningful: Feedback is nil on a win.
type GuessResult struct {
	Won           bool               `json:"won"`
	Message       string             `json:"message,omitempty"`
	TargetCountry string             `json:"targetCountry,omitempty"` // set on a win
	Guess         countries.Country  `json:"guess"`
	Feedback      *feedback.Feedback `json:"feedback,omitempty"`
	Attempts      int                `json:"attempts"`
}
