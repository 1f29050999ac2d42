package corpus

import (
	"strings"

	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

const lockSentinel = "#CONTEXT"

// Parse reads a template file. Lines are
//
//	trigger=resp1|resp2
//	-keyword=resp1|resp2
//	:keyword=context.txt:     (only honoured when base is true)
//
// and a first non-blank line of #CONTEXT locks the context. Lines that do not
// fit are skipped and counted in Snapshot.Skipped.
func Parse(name, text string, lex *textnorm.Lexicon, base bool) *Snapshot {
	b := NewBuilder(name, lex)
	first := true
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(line, lockSentinel) {
				b.Lock()
				continue
			}
		}
		parseLine(b, line, base)
	}
	return b.Build()
}

func parseLine(b *Builder, line string, base bool) {
	lex := b.snap.Lexicon
	switch {
	case len(line) > 1 && strings.HasPrefix(line, ":") && strings.HasSuffix(line, ":"):
		if !base {
			b.Skip()
			return
		}
		kw, target, ok := strings.Cut(line[1:len(line)-1], "=")
		kw, target = strings.TrimSpace(kw), strings.TrimSpace(target)
		if !ok || kw == "" || target == "" {
			b.Skip()
			return
		}
		key := lex.Key(kw)
		if key == "" {
			b.Skip()
			return
		}
		b.AddHint(key, target)

	case strings.HasPrefix(line, "-"):
		key, responses, ok := splitEntry(lex, line[1:])
		if !ok {
			b.Skip()
			return
		}
		b.AddKeyword(key, responses)

	default:
		key, responses, ok := splitEntry(lex, line)
		if !ok {
			b.Skip()
			return
		}
		b.AddTemplate(key, responses)
	}
}

// splitEntry parses "trigger=r1|r2" into a canonical key and responses.
func splitEntry(lex *textnorm.Lexicon, line string) (string, []string, bool) {
	trigger, rest, ok := strings.Cut(line, "=")
	if !ok {
		return "", nil, false
	}
	key := lex.Key(trigger)
	responses := SplitAlternatives(rest)
	if key == "" || len(responses) == 0 {
		return "", nil, false
	}
	return key, responses, true
}

// SplitAlternatives splits a pipe-delimited response list, dropping blanks.
func SplitAlternatives(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Default display metadata used when a context has no metadata file.
var DefaultPersona = model.Persona{
	MascotName:      "Racky",
	MascotIcon:      "raccoon_icon.png",
	ThemeColor:      "#00FFFF",
	ThemeBackground: "#0A0A0A",
}

// ParseMetadata reads a *_metadata.txt file on top of DefaultPersona.
func ParseMetadata(text string) model.Persona {
	p := DefaultPersona
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		switch strings.TrimSpace(k) {
		case "mascot_list":
			for _, m := range strings.Split(v, "|") {
				parts := strings.Split(m, ":")
				if len(parts) != 4 {
					continue
				}
				p.Mascots = append(p.Mascots, model.Mascot{
					Name:       strings.TrimSpace(parts[0]),
					Icon:       strings.TrimSpace(parts[1]),
					Color:      strings.TrimSpace(parts[2]),
					Background: strings.TrimSpace(parts[3]),
				})
			}
		case "mascot_name":
			p.MascotName = v
		case "mascot_icon":
			p.MascotIcon = v
		case "theme_color":
			p.ThemeColor = v
		case "theme_background":
			p.ThemeBackground = v
		}
	}
	return p
}

// MetadataFile returns the metadata file name for a context.
func MetadataFile(contextName string) string {
	return strings.TrimSuffix(contextName, ".txt") + "_metadata.txt"
}

// Fallback builds the minimal built-in snapshot used when a context file is
// missing or cannot be decrypted.
func Fallback(name string, lex *textnorm.Lexicon) *Snapshot {
	b := NewBuilder(name, lex)
	lex = b.snap.Lexicon
	if k := lex.Key("hello"); k != "" {
		b.AddTemplate(k, []string{"Hello! How can I help?", "Hi!"})
	}
	if k := lex.Key("how are you"); k != "" {
		b.AddTemplate(k, []string{"I'm great, and you?", "Doing fine, how about you?"})
	}
	if k := lex.Key("thanks"); k != "" {
		b.AddKeyword(k, []string{"Glad I could help!", "You're welcome!"})
	}
	s := b.Build()
	s.Fallback = true
	s.Persona = DefaultPersona
	return s
}
