package memory

import (
	"strings"

	"github.com/rcliao/pawscribe/internal/textnorm"
)

// Corrections maps a normalized misspelling to its replacement.
type Corrections map[string]string

// ParseCorrections reads "bad=good" lines. A "recall:" prefix on the left
// side is ignored.
func ParseCorrections(text string) Corrections {
	c := make(Corrections)
	for _, raw := range strings.Split(text, "\n") {
		bad, good, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok {
			continue
		}
		bad = strings.TrimPrefix(strings.TrimSpace(bad), "recall:")
		key := textnorm.Normalize(bad)
		good = textnorm.Normalize(good)
		if key == "" || good == "" {
			continue
		}
		c[key] = good
	}
	return c
}

// Apply replaces tokens one by one. A replacement may expand to several
// tokens.
func (c Corrections) Apply(tokens []string) []string {
	if len(c) == 0 {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if good, ok := c[textnorm.Normalize(t)]; ok {
			out = append(out, textnorm.Tokenize(good)...)
			continue
		}
		out = append(out, t)
	}
	return out
}
