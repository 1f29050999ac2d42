package memory

import (
	"slices"
	"strings"

	"github.com/rcliao/pawscribe/internal/textnorm"
)

// TopicPattern captures the folded tokens between Left and Right as the
// current topic.
type TopicPattern struct {
	Left     []string
	Right    []string
	Response string
}

// Capture returns the topic captured from folded tokens. At least one token
// must sit between the two anchors.
func (p TopicPattern) Capture(tokens []string) (string, bool) {
	if len(p.Left) == 0 && len(p.Right) == 0 {
		return "", false
	}
	if len(tokens) <= len(p.Left)+len(p.Right) {
		return "", false
	}
	if !slices.Equal(tokens[:len(p.Left)], p.Left) {
		return "", false
	}
	if !slices.Equal(tokens[len(tokens)-len(p.Right):], p.Right) {
		return "", false
	}
	topic := strings.Join(tokens[len(p.Left):len(tokens)-len(p.Right)], " ")
	return topic, topic != ""
}

// Topics is the parsed content of context.txt.
type Topics struct {
	Patterns []TopicPattern
	// Recall maps a question's canonical key to an answer containing {topic}.
	Recall map[string]string
}

// ParseTopics reads "left{}right=response" capture lines and
// "$question=answer" recall lines. Other lines are ignored.
func ParseTopics(text string, lex *textnorm.Lexicon) *Topics {
	t := &Topics{Recall: make(map[string]string)}
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "$"); ok {
			q, a, ok := strings.Cut(rest, "=")
			if !ok {
				continue
			}
			if key := lex.Key(q); key != "" {
				t.Recall[key] = strings.TrimSpace(a)
			}
			continue
		}
		pattern, response, _ := strings.Cut(line, "=")
		left, right, ok := strings.Cut(pattern, "{}")
		if !ok {
			continue
		}
		t.Patterns = append(t.Patterns, TopicPattern{
			Left:     lex.Tokens(left),
			Right:    lex.Tokens(right),
			Response: strings.TrimSpace(response),
		})
	}
	return t
}
