// Package strength classifies candidate passwords on the 0..4 zxcvbn scale
// and explains weak results in human-readable terms.
//
// Results are ephemeral: callers recompute them on every change of the
// candidate password and never persist them.
package strength

import (
	"strings"

	"github.com/nbutton23/zxcvbn-go"
)

// MaxScore is the best possible score.
const MaxScore = 4

// Result is the classification of one candidate password.
type Result struct {
	Score       int
	Warning     string
	Suggestions []string
}

// Message joins the warning and the suggestions into a single line suitable
// for an error notice. It is empty for passwords without feedback.
func (r Result) Message() string {
	parts := make([]string, 0, len(r.Suggestions)+1)
	if r.Warning != "" {
		parts = append(parts, terminate(r.Warning))
	}
	for _, s := range r.Suggestions {
		parts = append(parts, terminate(s))
	}
	return strings.Join(parts, " ")
}

func terminate(s string) string {
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?") {
		return s
	}
	return s + "."
}

// Scorer is implemented by anything that can classify a password.
// userInputs are strings (email, name) that should count as guessable.
type Scorer interface {
	Score(password string, userInputs ...string) Result
}

// ZxcvbnScorer is the default Scorer backed by zxcvbn-go.
type ZxcvbnScorer struct{}

// NewScorer returns the default Scorer.
func NewScorer() ZxcvbnScorer {
	return ZxcvbnScorer{}
}

func (ZxcvbnScorer) Score(password string, userInputs ...string) Result {
	return Score(password, userInputs...)
}

// Score classifies password with zxcvbn and attaches feedback.
func Score(password string, userInputs ...string) Result {
	if password == "" {
		return Result{Score: 0, Suggestions: defaultSuggestions()}
	}

	m := zxcvbn.PasswordStrength(password, userInputs)
	score := m.Score
	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}

	warning, suggestions := feedback(score, m.MatchSequence)
	return Result{Score: score, Warning: warning, Suggestions: suggestions}
}
