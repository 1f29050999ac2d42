package textnorm

import (
	"regexp"
	"strings"
)

// Lexicon holds the synonym map and stopword set used for folding.
// A Lexicon is read-only once built; reloads build a new one.
type Lexicon struct {
	Synonyms  map[string]string
	Stopwords map[string]struct{}
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		Synonyms:  make(map[string]string),
		Stopwords: make(map[string]struct{}),
	}
}

// Map returns the canonical synonym for a single token.
func (l *Lexicon) Map(token string) string {
	n := Normalize(token)
	if l == nil {
		return n
	}
	if s, ok := l.Synonyms[n]; ok {
		return s
	}
	return n
}

// IsStopword reports whether the token is dropped during folding.
func (l *Lexicon) IsStopword(token string) bool {
	if l == nil {
		return false
	}
	_, ok := l.Stopwords[token]
	return ok
}

// Fold maps every token through the synonym table and drops stopwords.
// It returns the filtered tokens and their space-joined form.
func (l *Lexicon) Fold(tokens []string) ([]string, string) {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		m := l.Map(t)
		if m == "" || l.IsStopword(m) {
			continue
		}
		out = append(out, m)
	}
	return out, strings.Join(out, " ")
}

// MapAll maps tokens through synonyms without dropping stopwords.
func (l *Lexicon) MapAll(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if m := l.Map(t); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// Tokens normalizes, tokenizes and folds text.
func (l *Lexicon) Tokens(text string) []string {
	toks, _ := l.Fold(Tokenize(Normalize(text)))
	return toks
}

// Key is the canonical key for free text.
func (l *Lexicon) Key(text string) string {
	return CanonicalKey(l.Tokens(text))
}

// ParseSynonyms reads lines of the form "a;b;c", optionally wrapped in
// asterisks. Every member maps to the last one on its line.
func ParseSynonyms(text string, l *Lexicon) int {
	n := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(line) > 1 && strings.HasPrefix(line, "*") && strings.HasSuffix(line, "*") {
			line = line[1 : len(line)-1]
		}
		var parts []string
		for _, p := range strings.Split(line, ";") {
			if p = Normalize(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			continue
		}
		canonical := parts[len(parts)-1]
		for _, p := range parts {
			l.Synonyms[p] = canonical
		}
		n++
	}
	l.resolveChains()
	return n
}

// resolveChains rewrites a->b, b->c into a->c so that folding is idempotent
// even when a canonical word is listed as a member of another line.
func (l *Lexicon) resolveChains() {
	for k := range l.Synonyms {
		seen := map[string]bool{k: true}
		target := l.Synonyms[k]
		for {
			next, ok := l.Synonyms[target]
			if !ok || next == target || seen[next] {
				break
			}
			seen[target] = true
			target = next
		}
		l.Synonyms[k] = target
	}
}

var stopwordSep = regexp.MustCompile(`[\r\n\t,|^;]+`)

// ParseStopwords reads stopwords separated by newlines, tabs, commas,
// pipes, carets or semicolons.
func ParseStopwords(text string, l *Lexicon) int {
	n := 0
	for _, p := range stopwordSep.Split(text, -1) {
		if p = Normalize(p); p != "" {
			l.Stopwords[p] = struct{}{}
			n++
		}
	}
	return n
}
