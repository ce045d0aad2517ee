// internal/cli/cli.go
//
// Interactive terminal game.
//
// Flow:
//   1. Pick a difficulty from a numbered list.
//   2. Start a game on the server and fetch that tier's country names.
//   3. Read guesses until the player wins, types "restart" or types "exit".
//      Free text is resolved locally; close matches need a y/n confirmation
//      and a "no" does not cost an attempt.
//   4. Feedback for every guess so far is rendered as a table.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/peterh/liner"

	"github.com/robalobadob/countryguess/internal/client"
	"github.com/robalobadob/countryguess/internal/countries"
	"github.com/robalobadob/countryguess/internal/feedback"
	"github.com/robalobadob/countryguess/internal/fuzzy"
)

// Prompter reads one line of input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
}

// API is the subset of *client.Client the game needs.
type API interface {
	CountryNames(ctx context.Context, tier countries.Tier) ([]string, error)
	StartGame(ctx context.Context, tier countries.Tier) (client.StartResponse, error)
	Guess(ctx context.Context, name string) (client.GuessResponse, error)
	Restart(ctx context.Context) error
}

// palette groups the colors used for output.
type palette struct {
	Good, Bad, Near, Info, Warn, Header, Prompt *color.Color
}

// C is the output palette. Set color.NoColor to disable it.
var C = palette{
	Good:   color.New(color.FgGreen),
	Bad:    color.New(color.FgRed),
	Near:   color.New(color.FgYellow),
	Info:   color.New(color.FgCyan),
	Warn:   color.New(color.FgHiYellow),
	Header: color.New(color.FgWhite, color.Bold),
	Prompt: color.New(color.FgHiWhite),
}

// errQuit ends the session without an error.
var errQuit = errors.New("quit")

type outcome int

const (
	outcomeWon outcome = iota
	outcomeRestart
)

// App runs games against one server.
type App struct {
	api API
	in  Prompter
	out io.Writer
}

// New returns an App reading from in and writing to out.
func New(api API, in Prompter, out io.Writer) *App {
	return &App{api: api, in: in, out: out}
}

type guessRow struct {
	name string
	fb   feedback.Feedback
}

// Run plays games until the player quits or input ends.
func (a *App) Run(ctx context.Context) error {
	C.Header.Fprintln(a.out, "--- Guess the Country ---")
	for {
		tier, err := a.chooseTier()
		if err != nil {
			return a.finish(err)
		}
		res, err := a.play(ctx, tier)
		if err != nil {
			return a.finish(err)
		}
		if res == outcomeRestart {
			continue
		}
		again, err := a.confirm("Play again? (y/n) ")
		if err != nil {
			return a.finish(err)
		}
		if !again {
			return a.finish(errQuit)
		}
	}
}

func (a *App) finish(err error) error {
	if errors.Is(err, errQuit) {
		C.Info.Fprintln(a.out, "Goodbye!")
		return nil
	}
	return err
}

// readLine prompts and maps end-of-input and Ctrl-C to errQuit.
func (a *App) readLine(prompt string) (string, error) {
	C.Prompt.Fprint(a.out, prompt)
	s, err := a.in.Prompt("")
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	if h, ok := a.in.(interface{ AppendHistory(string) }); ok && strings.TrimSpace(s) != "" {
		h.AppendHistory(s)
	}
	return strings.TrimSpace(s), nil
}

func (a *App) confirm(prompt string) (bool, error) {
	for {
		s, err := a.readLine(prompt)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		case fuzzy.CommandExit:
			return false, errQuit
		}
		C.Warn.Fprintln(a.out, "Please answer y or n.")
	}
}

var tierLabels = map[countries.Tier]string{
	countries.TierEasyEurope: "European countries",
	countries.TierEasy:       "UN members with more than 100 million people",
	countries.TierHard:       "every UN member",
	countries.TierExpert:     "every country and territory",
}

// chooseTier accepts a list number or a tier name.
func (a *App) chooseTier() (countries.Tier, error) {
	tiers := countries.Tiers()
	fmt.Fprintln(a.out)
	for i, t := range tiers {
		fmt.Fprintf(a.out, "  %d) %-12s %s\n", i+1, t, tierLabels[t])
	}
	for {
		s, err := a.readLine(fmt.Sprintf("Choose a difficulty (1-%d): ", len(tiers)))
		if err != nil {
			return "", err
		}
		if strings.EqualFold(s, fuzzy.CommandExit) {
			return "", errQuit
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(tiers) {
			return tiers[n-1], nil
		}
		if t, err := countries.ParseTier(s); err == nil {
			return t, nil
		}
		C.Warn.Fprintf(a.out, "Invalid choice. Enter a number between 1 and %d.\n", len(tiers))
	}
}

// play runs one game at tier.
func (a *App) play(ctx context.Context, tier countries.Tier) (outcome, error) {
	start, err := a.api.StartGame(ctx, tier)
	if err != nil {
		return 0, fmt.Errorf("start game: %w", err)
	}
	names, err := a.api.CountryNames(ctx, tier)
	if err != nil {
		return 0, fmt.Errorf("list countries: %w", err)
	}
	C.Info.Fprintln(a.out, start.Message)
	fmt.Fprintln(a.out, `Type a country name, "restart" for a new game or "exit" to quit.`)

	var history []guessRow
	for {
		input, err := a.readLine("Your guess: ")
		if err != nil {
			return 0, err
		}
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case fuzzy.CommandExit:
			return 0, errQuit
		case fuzzy.CommandRestart:
			if err := a.api.Restart(ctx); err != nil {
				return 0, fmt.Errorf("restart: %w", err)
			}
			C.Info.Fprintln(a.out, "Game restarted.")
			return outcomeRestart, nil
		}

		name, ok, err := a.resolve(input, names)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}

		res, err := a.api.Guess(ctx, name)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Code == "unknown_country" {
			C.Warn.Fprintf(a.out, "%s is not in the catalog.\n", name)
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("guess: %w", err)
		}
		if res.Won {
			C.Good.Fprintln(a.out, res.Message)
			return outcomeWon, nil
		}
		if res.Feedback != nil {
			history = append(history, guessRow{name: res.Guess, fb: *res.Feedback})
		}
		C.Bad.Fprintf(a.out, "Not quite. Attempts: %d\n", res.Attempts)
		a.render(history)
	}
}

// resolve maps free text to a canonical name. ok is false when the input
// should be re-prompted.
func (a *App) resolve(input string, names []string) (string, bool, error) {
	r := fuzzy.Resolve(input, names)
	switch r.Kind {
	case fuzzy.KindExact:
		return r.Name, true, nil
	case fuzzy.KindSuggested:
		yes, err := a.confirm(fmt.Sprintf("Did you mean %s? (y/n) ", r.Name))
		if err != nil || !yes {
			return "", false, err
		}
		return r.Name, true, nil
	default:
		C.Warn.Fprintf(a.out, "Country %q not recognized. Try again.\n", input)
		return "", false, nil
	}
}

func (a *App) render(history []guessRow) {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.AppendHeader(table.Row{"#", "Guess", "Population", "Area", "Continent", "Latitude", "Longitude", "Distance"})
	for i, g := range history {
		t.AppendRow(table.Row{
			i + 1,
			g.name,
			magnitude(g.fb.Population),
			magnitude(g.fb.Area),
			continent(g.fb.Continent),
			latitude(g.fb.Location.Latitude),
			longitude(g.fb.Location.Longitude),
			distance(g.fb.Distance),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}

func magnitude(m feedback.Magnitude) string {
	switch m {
	case feedback.MagnitudeSimilar:
		return C.Good.Sprint("similar")
	case feedback.MagnitudeGreater:
		return C.Near.Sprint("higher")
	default:
		return C.Near.Sprint("lower")
	}
}

func continent(h feedback.ContinentHint) string {
	if h == feedback.ContinentMatch {
		return C.Good.Sprint("match")
	}
	return C.Bad.Sprint("different")
}

func latitude(h feedback.LatitudeHint) string {
	switch h {
	case feedback.LatitudeSame:
		return C.Good.Sprint("same")
	case feedback.LatitudeNorth:
		return C.Near.Sprint("north")
	case feedback.LatitudeSouth:
		return C.Near.Sprint("south")
	default:
		return "?"
	}
}

func longitude(h feedback.LongitudeHint) string {
	switch h {
	case feedback.LongitudeSame:
		return C.Good.Sprint("same")
	case feedback.LongitudeEast:
		return C.Near.Sprint("east")
	case feedback.LongitudeWest:
		return C.Near.Sprint("west")
	default:
		return "?"
	}
}

func distance(d feedback.Distance) string {
	if !d.Known {
		return "unknown"
	}
	return fmt.Sprintf("%.0f km", d.Kilometers)
}
