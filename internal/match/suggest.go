package match

import (
	"github.com/sahilm/fuzzy"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// Suggest returns up to limit template and keyword keys that fuzzily
// contain the normalized input, best first.
func Suggest(s *corpus.Snapshot, input string, limit int) []string {
	if s == nil {
		return nil
	}
	pattern := textnorm.Normalize(input)
	if pattern == "" {
		return nil
	}
	keys := make([]string, 0, len(s.TemplateKeys())+len(s.KeywordKeys()))
	keys = append(keys, s.TemplateKeys()...)
	keys = append(keys, s.KeywordKeys()...)

	matches := fuzzy.Find(pattern, keys)
	out := make([]string, 0, min(len(matches), max(limit, 0)))
	seen := make(map[string]bool)
	for _, mt := range matches {
		if limit > 0 && len(out) >= limit {
			break
		}
		if seen[mt.Str] {
			continue
		}
		seen[mt.Str] = true
		out = append(out, mt.Str)
	}
	return out
}
