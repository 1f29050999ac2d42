package memory

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rcliao/pawscribe/internal/textnorm"
)

var wordRe = regexp.MustCompile(`\p{L}[\p{L}\p{N}'-]*`)

// isNameSlot reports whether values stored in slot get their original
// casing restored.
func isNameSlot(slot string) bool {
	return strings.Contains(strings.ToLower(slot), "name")
}

// RestoreCase finds value as a contiguous run of words in original and
// returns that span as the user typed it. The first run that matches wins.
// When nothing matches, every word of value is title-cased.
func RestoreCase(value, original string) string {
	target := textnorm.Normalize(value)
	if target == "" || strings.TrimSpace(original) == "" {
		return TitleWords(value)
	}
	locs := wordRe.FindAllStringIndex(original, -1)
	words := make([]string, len(locs))
	for i, loc := range locs {
		words[i] = textnorm.Normalize(original[loc[0]:loc[1]])
	}
	limit := utf8.RuneCountInString(target) + 10

	for start := range words {
		var b strings.Builder
		for end := start; end < len(words); end++ {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(words[end])
			if b.String() == target {
				return strings.TrimSpace(original[locs[start][0]:locs[end][1]])
			}
			if utf8.RuneCountInString(b.String()) > limit {
				break
			}
		}
	}
	return TitleWords(value)
}

// TitleWords upper-cases the first letter of every word and leaves the
// rest alone.
func TitleWords(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = caser.String(f)
	}
	return strings.Join(fields, " ")
}

// secondPerson rewrites first-person words of s using subs, keeping the
// surrounding text as typed.
func secondPerson(s string, subs map[string]string) string {
	if len(subs) == 0 {
		return s
	}
	return wordRe.ReplaceAllStringFunc(s, func(w string) string {
		if to, ok := subs[strings.ToLower(w)]; ok {
			return to
		}
		return w
	})
}
