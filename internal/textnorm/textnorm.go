// Package textnorm turns raw user text into folded tokens and canonical keys.
package textnorm

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC, lower-cases, replaces everything that is not a
// letter, digit or whitespace with a space, then collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// cases.Caser keeps state, so one per call.
	lower := cases.Lower(language.Und).String(norm.NFC.String(s))

	var b strings.Builder
	b.Grow(len(lower))
	space := true
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokenize splits text into words on whitespace and punctuation boundaries.
func Tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
}

// CanonicalKey sorts tokens and joins them with single spaces.
// The input slice is not modified.
func CanonicalKey(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// KeyTokens splits a canonical key back into its tokens.
func KeyTokens(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Fields(key)
}

// TokenSet returns the distinct tokens as a set.
func TokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
