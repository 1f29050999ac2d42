package memory

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rcliao/pawscribe/internal/textnorm"
)

var placeholderRe = regexp.MustCompile(`<([\p{L}\p{N}_]+)>`)

// Segment is one piece of a parsed pattern: either literal text or a named
// capture.
type Segment struct {
	Literal string
	Capture string
}

// IsCapture reports whether the segment is a placeholder.
func (s Segment) IsCapture() bool { return s.Capture != "" }

// Pattern is a compiled remember or recall template.
type Pattern struct {
	Raw          string
	Segments     []Segment
	Placeholders []string
	Response     string
	// TargetSlot is set for remember patterns with exactly one placeholder.
	TargetSlot string

	re *regexp.Regexp
}

// ParseSegments splits raw markup into literal and capture segments.
func ParseSegments(raw string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(raw, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Literal: raw[last:loc[0]]})
		}
		segs = append(segs, Segment{Capture: raw[loc[2]:loc[3]]})
		last = loc[1]
	}
	if last < len(raw) {
		segs = append(segs, Segment{Literal: raw[last:]})
	}
	return segs
}

// Compile parses raw and builds its matcher. Literal text is normalized and
// synonym-mapped the same way incoming text is, so the two line up.
func Compile(raw, response string, lex *textnorm.Lexicon, remember bool) (*Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	p := &Pattern{
		Raw:      raw,
		Segments: ParseSegments(raw),
		Response: strings.TrimSpace(response),
	}
	for _, s := range p.Segments {
		if s.IsCapture() {
			p.Placeholders = append(p.Placeholders, s.Capture)
		}
	}
	if remember && len(p.Placeholders) == 1 {
		p.TargetSlot = p.Placeholders[0]
	}

	var expr string
	if len(p.Segments) == 1 && p.Segments[0].IsCapture() {
		expr = `(?is)^\s*(.+)\s*$`
	} else {
		var parts []string
		for _, s := range p.Segments {
			if s.IsCapture() {
				parts = append(parts, `(.+?)`)
				continue
			}
			lit := strings.Join(lex.MapAll(textnorm.Tokenize(textnorm.Normalize(s.Literal))), " ")
			if lit != "" {
				parts = append(parts, regexp.QuoteMeta(lit))
			}
		}
		if len(parts) == 0 {
			return nil, fmt.Errorf("pattern %q has no matchable text", raw)
		}
		expr = `(?i)^\s*` + strings.Join(parts, `\s*`) + `\s*$`
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", raw, err)
	}
	p.re = re
	return p, nil
}

// Match runs the pattern against folded text and returns one trimmed value
// per placeholder, in placeholder order.
func (p *Pattern) Match(text string) ([]string, bool) {
	m := p.re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	caps := make([]string, 0, len(m)-1)
	for _, g := range m[1:] {
		caps = append(caps, strings.TrimSpace(g))
	}
	return caps, true
}

// Captured returns the value captured for name, or "".
func (p *Pattern) Captured(caps []string, name string) string {
	for i, ph := range p.Placeholders {
		if ph == name && i < len(caps) {
			return caps[i]
		}
	}
	return ""
}

// ParsePatterns compiles every "pattern=response" line of text. Lines that
// fail to compile are returned as skipped.
func ParsePatterns(text string, lex *textnorm.Lexicon, remember bool) ([]*Pattern, []string) {
	var (
		out     []*Pattern
		skipped []string
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		pattern, response, _ := strings.Cut(line, "=")
		p, err := Compile(pattern, response, lex, remember)
		if err != nil {
			skipped = append(skipped, line)
			continue
		}
		out = append(out, p)
	}
	return out, skipped
}
