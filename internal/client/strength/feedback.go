package strength

import (
	"math"
	"strings"
	"unicode"

	"github.com/nbutton23/zxcvbn-go/match"
)

const extraWordSuggestion = "Add another word or two. Uncommon words are better."

func defaultSuggestions() []string {
	return []string{
		"Use a few words, avoid common phrases",
		"No need for symbols, digits, or uppercase letters",
	}
}

// feedback mirrors the reference zxcvbn feedback rules: strong passwords get
// nothing, weak ones are explained by their longest match.
func feedback(score int, sequence []match.Match) (string, []string) {
	if len(sequence) == 0 {
		return "", defaultSuggestions()
	}
	if score > 2 {
		return "", nil
	}

	longest := sequence[0]
	for _, m := range sequence[1:] {
		if len(m.Token) > len(longest.Token) {
			longest = m
		}
	}

	warning, suggestions := matchFeedback(longest, len(sequence) == 1)
	return warning, append([]string{extraWordSuggestion}, suggestions...)
}

func matchFeedback(m match.Match, soleMatch bool) (string, []string) {
	pattern := strings.ToLower(m.Pattern)
	switch {
	case pattern == "dictionary" || strings.Contains(pattern, "l33t") || strings.Contains(pattern, "leet"):
		return dictionaryFeedback(m, soleMatch)
	case pattern == "spatial":
		if len(m.Token) <= 4 {
			return "Short keyboard patterns are easy to guess", []string{"Use a longer keyboard pattern with more turns"}
		}
		return "Straight rows of keys are easy to guess", []string{"Use a longer keyboard pattern with more turns"}
	case pattern == "repeat":
		if isSingleCharRepeat(m.Token) {
			return `Repeats like "aaa" are easy to guess`, []string{"Avoid repeated words and characters"}
		}
		return `Repeats like "abcabcabc" are only slightly harder to guess than "abc"`, []string{"Avoid repeated words and characters"}
	case pattern == "sequence":
		return "Sequences like abc or 6543 are easy to guess", []string{"Avoid sequences"}
	case strings.Contains(pattern, "date"):
		return "Dates are often easy to guess", []string{"Avoid dates and years that are associated with you"}
	case strings.Contains(pattern, "year"):
		return "Recent years are easy to guess", []string{"Avoid recent years", "Avoid years that are associated with you"}
	}
	return "", nil
}

// Dictionary entropy is roughly log2(rank) plus case/l33t bits, so it stands
// in for the rank-based thresholds of the reference implementation.
func dictionaryFeedback(m match.Match, soleMatch bool) (string, []string) {
	var warning string
	dict := strings.ToLower(m.DictionaryName)
	leet := isLeet(m)

	switch {
	case strings.Contains(dict, "password"):
		switch {
		case soleMatch && !leet && m.Entropy <= math.Log2(10)+1:
			warning = "This is a top-10 common password"
		case soleMatch && !leet && m.Entropy <= math.Log2(100)+1:
			warning = "This is a top-100 common password"
		case soleMatch && !leet:
			warning = "This is a very common password"
		case m.Entropy <= math.Log2(1e4):
			warning = "This is similar to a commonly used password"
		}
	case strings.Contains(dict, "english") || strings.Contains(dict, "wiki"):
		if soleMatch {
			warning = "A word by itself is easy to guess"
		}
	case strings.Contains(dict, "name"):
		if soleMatch {
			warning = "Names and surnames by themselves are easy to guess"
		} else {
			warning = "Common names and surnames are easy to guess"
		}
	}

	var suggestions []string
	switch {
	case startsUpperOnly(m.Token):
		suggestions = append(suggestions, "Capitalization doesn't help very much")
	case isAllUpper(m.Token):
		suggestions = append(suggestions, "All-uppercase is almost as easy to guess as all-lowercase")
	}
	if leet {
		suggestions = append(suggestions, "Predictable substitutions like '@' instead of 'a' don't help very much")
	}
	return warning, suggestions
}

func isLeet(m match.Match) bool {
	p := strings.ToLower(m.Pattern)
	if strings.Contains(p, "l33t") || strings.Contains(p, "leet") {
		return true
	}
	return strings.ContainsAny(m.Token, "@$!01345789") && strings.IndexFunc(m.Token, unicode.IsLetter) >= 0
}

func isSingleCharRepeat(token string) bool {
	r := []rune(token)
	for i := 1; i < len(r); i++ {
		if r[i] != r[0] {
			return false
		}
	}
	return len(r) > 0
}

func startsUpperOnly(token string) bool {
	r := []rune(token)
	if len(r) < 2 || !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if unicode.IsUpper(c) {
			return false
		}
	}
	return true
}

func isAllUpper(token string) bool {
	return strings.ToUpper(token) == token && strings.ToLower(token) != token
}
