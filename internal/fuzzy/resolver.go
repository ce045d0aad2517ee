// internal/fuzzy/resolver.go
//
// Fuzzy country-name resolution for free-text guesses.
//
// Similarity is the Sørensen–Dice coefficient over character bigrams:
//   - Inputs are lower-cased and stripped of all whitespace.
//   - Equal normalized strings score 1.
//   - Strings shorter than two runes otherwise score 0.
//   - Score = 2·|shared bigrams| / (|bigrams(a)| + |bigrams(b)|), multiset.
//
// Resolve picks the best-scoring candidate (first one wins ties) and classifies
// the outcome as Exact, Suggested (score >= SuggestThreshold) or Unrecognized.

package fuzzy

import (
	"strings"
	"unicode"
)

// SuggestThreshold is the minimum score for a suggestion.
const SuggestThreshold = 0.7

// Kind classifies a resolution outcome.
type Kind string

const (
	KindExact        Kind = "exact"
	KindSuggested    Kind = "suggested"
	KindUnrecognized Kind = "unrecognized"
)

// Result of resolving one input. Name is the canonical candidate for Exact
// and Suggested outcomes and empty for Unrecognized.
type Result struct {
	Kind       Kind    `json:"kind"`
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Resolve matches raw against candidates.
func Resolve(raw string, candidates []string) Result {
	in := normalize(raw)
	if in == "" || len(candidates) == 0 {
		return Result{Kind: KindUnrecognized}
	}

	bestIdx, bestScore := -1, -1.0
	var bestNorm string
	for i, c := range candidates {
		cn := normalize(c)
		s := similarity(in, cn)
		if s > bestScore {
			bestIdx, bestScore, bestNorm = i, s, cn
		}
	}

	switch {
	case bestScore == 1 && bestNorm == in:
		return Result{Kind: KindExact, Name: candidates[bestIdx], Confidence: 1}
	case bestScore >= SuggestThreshold:
		return Result{Kind: KindSuggested, Name: candidates[bestIdx], Confidence: bestScore}
	default:
		return Result{Kind: KindUnrecognized, Confidence: max(bestScore, 0)}
	}
}

// Similarity returns the Dice coefficient of a and b after normalization.
func Similarity(a, b string) float64 {
	return similarity(normalize(a), normalize(b))
}

func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ar, br := []rune(a), []rune(b)
	if len(ar) < 2 || len(br) < 2 {
		return 0
	}

	counts := make(map[[2]rune]int, len(ar)-1)
	for i := 0; i+1 < len(ar); i++ {
		counts[[2]rune{ar[i], ar[i+1]}]++
	}
	shared := 0
	for i := 0; i+1 < len(br); i++ {
		bg := [2]rune{br[i], br[i+1]}
		if counts[bg] > 0 {
			counts[bg]--
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(ar)+len(br)-2)
}

// normalize lower-cases s and removes all whitespace.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// Reserved commands are handled by callers and never scored as countries.
const (
	CommandExit    = "exit"
	CommandRestart = "restart"
)

// IsReserved reports whether input is one of the reserved commands.
func IsReserved(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case CommandExit, CommandRestart:
		return true
	}
	return false
}
