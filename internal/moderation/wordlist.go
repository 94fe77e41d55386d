package moderation

import (
	"context"
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// WordlistClassifier flags texts containing any configured term. Matching
// ignores case, punctuation, spacing and common leetspeak substitutions.
type WordlistClassifier struct {
	matcher *goahocorasick.Machine
	words   int
}

func NewWordlistClassifier(words []string) (*WordlistClassifier, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		if p := normalizeRunes([]rune(word)); len(p) > 0 {
			patterns = append(patterns, p)
		}
	}

	w := &WordlistClassifier{words: len(patterns)}
	if len(patterns) == 0 {
		return w, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("failed to build wordlist matcher: %w", err)
	}
	w.matcher = m
	return w, nil
}

func (w *WordlistClassifier) Classify(_ context.Context, text string) (Result, error) {
	if w.matcher == nil {
		return Result{Safe: true}, nil
	}

	normalized := normalizeRunes([]rune(text))
	if len(normalized) == 0 {
		return Result{Safe: true}, nil
	}

	terms := w.matcher.MultiPatternSearch(normalized, true)
	if len(terms) == 0 {
		return Result{Safe: true}, nil
	}
	return Result{Safe: false, Reason: fmt.Sprintf("contains blocked term: %s", string(terms[0].Word))}, nil
}

// normalizeRunes applies simplification and noise removal to a slice of runes.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leetspeak characters back to letters.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
