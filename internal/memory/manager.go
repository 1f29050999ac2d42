// Package memory extracts named slots and event facts from user input and
// answers from what it has remembered.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/pawscribe/internal/match"
	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/source"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// Rule file names, relative to the template directory.
const (
	CorrectionsFile = "ncorrect.txt"
	RememberFile    = "zapominanie.txt"
	RecallFile      = "vospominania.txt"
	TopicsFile      = "context.txt"
)

const (
	RecentLimit   = 10
	MemoriesLimit = 200
)

// SlotStore persists named slots.
type SlotStore interface {
	GetSlot(ctx context.Context, name string) (string, bool, error)
	SetSlot(ctx context.Context, name, value string) error
}

// EventLog persists memory entries. It may assign the entry ID.
type EventLog interface {
	AppendEvent(ctx context.Context, e *model.MemoryEntry) error
}

// Rules are the compiled memory files.
type Rules struct {
	Lexicon     *textnorm.Lexicon
	Corrections Corrections
	Remember    []*Pattern
	Recall      []*Pattern
	Topics      *Topics
}

// LoadRules reads and compiles the memory files. Missing or unreadable files
// leave their part empty.
func LoadRules(ctx context.Context, src source.Reader, lex *textnorm.Lexicon, logger *zap.Logger) *Rules {
	if logger == nil {
		logger = zap.NewNop()
	}
	read := func(name string) string {
		text, err := src.ReadText(ctx, name)
		if err != nil {
			if !errors.Is(err, source.ErrNotFound) {
				logger.Warn("read memory file", zap.String("file", name), zap.Error(err))
			}
			return ""
		}
		return text
	}

	r := &Rules{
		Lexicon:     lex,
		Corrections: ParseCorrections(read(CorrectionsFile)),
		Topics:      ParseTopics(read(TopicsFile), lex),
	}
	var skipped []string
	r.Remember, skipped = ParsePatterns(read(RememberFile), lex, true)
	for _, line := range skipped {
		logger.Debug("skip remember line", zap.String("line", line))
	}
	r.Recall, skipped = ParsePatterns(read(RecallFile), lex, false)
	for _, line := range skipped {
		logger.Debug("skip recall line", zap.String("line", line))
	}
	logger.Info("loaded memory rules",
		zap.Int("remember", len(r.Remember)),
		zap.Int("recall", len(r.Recall)),
		zap.Int("corrections", len(r.Corrections)),
		zap.Int("topics", len(r.Topics.Patterns)),
	)
	return r
}

// Options configure a Manager. Zero values are replaced by defaults.
type Options struct {
	Events   EventLog
	Picker   match.Picker
	Messages *Messages
	Now      func() time.Time
	Logger   *zap.Logger
}

// Manager owns the slot extractor, the memory log, recent messages and the
// current topic. It is safe for concurrent use.
type Manager struct {
	slots  SlotStore
	events EventLog
	picker match.Picker
	msgs   Messages
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	rules    *Rules
	recent   *Ring[model.Message]
	memories *Ring[model.MemoryEntry]
	topic    string
}

// NewManager returns a manager with empty rules.
func NewManager(slots SlotStore, opts Options) *Manager {
	m := &Manager{
		slots:    slots,
		events:   opts.Events,
		picker:   opts.Picker,
		now:      opts.Now,
		logger:   opts.Logger,
		rules:    &Rules{Topics: &Topics{}},
		recent:   NewRing[model.Message](RecentLimit),
		memories: NewRing[model.MemoryEntry](MemoriesLimit),
	}
	if m.picker == nil {
		m.picker = match.RandomPicker{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if opts.Messages != nil {
		m.msgs = *opts.Messages
	} else {
		m.msgs = EnglishMessages()
	}
	return m
}

// SetRules replaces the compiled rules.
func (m *Manager) SetRules(r *Rules) {
	if r == nil {
		r = &Rules{}
	}
	if r.Topics == nil {
		r.Topics = &Topics{}
	}
	m.mu.Lock()
	m.rules = r
	m.mu.Unlock()
}

// Restore seeds the memory log with entries listed newest first.
func (m *Manager) Restore(entries []model.MemoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range slices.Backward(entries) {
		m.memories.Push(e)
	}
}

// Process runs the remember templates, then the recall templates, against
// the input. Matches write slots and memory entries before returning.
func (m *Manager) Process(ctx context.Context, text string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.process(ctx, text)
}

func (m *Manager) process(ctx context.Context, text string) (string, bool) {
	r := m.rules
	normalized := textnorm.Normalize(text)
	corrected := r.Corrections.Apply(textnorm.Tokenize(normalized))
	folded := strings.Join(r.Lexicon.MapAll(corrected), " ")
	m.recent.Push(model.Message{Text: text, Normalized: strings.Join(corrected, " "), At: m.now()})

	for _, p := range r.Remember {
		caps, ok := p.Match(folded)
		if !ok {
			continue
		}
		values := m.values(p, caps, text)
		if p.TargetSlot != "" {
			v := values[p.TargetSlot]
			if v == "" {
				continue
			}
			m.saveSlot(ctx, p.TargetSlot, v)
			return m.render(ctx, p.Response, values, m.msgs.Remembered), true
		}
		if len(caps) == 0 || caps[0] == "" {
			continue
		}
		if v := values["name"]; v != "" {
			m.saveSlot(ctx, "name", v)
			return m.render(ctx, p.Response, values, m.msgs.RememberedThis), true
		}
		if resp := m.render(ctx, p.Response, values, ""); resp != "" {
			return resp, true
		}
	}

	for _, p := range r.Recall {
		caps, ok := p.Match(folded)
		if !ok {
			continue
		}
		values := m.values(p, caps, text)
		for _, ph := range p.Placeholders {
			if v := values[ph]; v != "" {
				m.saveSlot(ctx, ph, v)
			}
		}
		entry := model.MemoryEntry{
			Type:       "event",
			Predicate:  p.Raw,
			RawText:    text,
			Confidence: 1,
			CreatedAt:  m.now(),
		}
		if len(p.Placeholders) > 0 && values[p.Placeholders[0]] != "" {
			entry.Predicate = values[p.Placeholders[0]]
		}
		if len(p.Placeholders) > 1 {
			entry.Object = values[p.Placeholders[1]]
		}
		m.push(ctx, entry)
		return m.render(ctx, p.Response, values, m.msgs.Noted), true
	}
	return "", false
}

// values maps placeholders to captures, restoring the typed casing of name
// slots.
func (m *Manager) values(p *Pattern, caps []string, original string) map[string]string {
	out := make(map[string]string, len(p.Placeholders))
	for _, ph := range p.Placeholders {
		v := p.Captured(caps, ph)
		if v != "" && isNameSlot(ph) {
			v = RestoreCase(v, original)
		}
		out[ph] = v
	}
	return out
}

// render picks one "|" alternative of tmpl and fills its placeholders from
// values, then stored slots, then the unknown marker. An empty tmpl yields
// def.
func (m *Manager) render(ctx context.Context, tmpl string, values map[string]string, def string) string {
	if strings.TrimSpace(tmpl) == "" {
		return def
	}
	chosen := m.pickAlternative(tmpl)
	return placeholderRe.ReplaceAllStringFunc(chosen, func(ph string) string {
		name := ph[1 : len(ph)-1]
		if v := values[name]; v != "" {
			return v
		}
		if v := m.readSlot(ctx, name); v != "" {
			return v
		}
		return m.msgs.Unknown
	})
}

func (m *Manager) pickAlternative(s string) string {
	if !strings.Contains(s, "|") {
		return s
	}
	var parts []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return s
	}
	return m.picker.PickOne(parts)
}

func (m *Manager) saveSlot(ctx context.Context, name, value string) {
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if name == "" || value == "" || m.slots == nil {
		return
	}
	if err := m.slots.SetSlot(ctx, name, value); err != nil {
		m.logger.Warn("save slot", zap.String("slot", name), zap.Error(err))
		return
	}
	m.logger.Debug("saved slot", zap.String("slot", name), zap.String("value", value))
}

func (m *Manager) readSlot(ctx context.Context, name string) string {
	if m.slots == nil {
		return ""
	}
	v, ok, err := m.slots.GetSlot(ctx, name)
	if err != nil {
		m.logger.Warn("read slot", zap.String("slot", name), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}

func (m *Manager) push(ctx context.Context, e model.MemoryEntry) {
	if m.events != nil {
		if err := m.events.AppendEvent(ctx, &e); err != nil {
			m.logger.Warn("append memory event", zap.Error(err))
		}
	}
	m.memories.Push(e)
}

// Topic runs the context.txt rules against folded tokens. A capture pattern
// sets the current topic; a recall question answers about it.
func (m *Manager) Topic(ctx context.Context, tokens []string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.rules.Topics
	for _, p := range t.Patterns {
		topic, ok := p.Capture(tokens)
		if !ok {
			continue
		}
		m.topic = topic
		m.process(ctx, topic)
		if p.Response != "" {
			return strings.ReplaceAll(p.Response, "{topic}", topic), true
		}
		return fmt.Sprintf(m.msgs.TopicRemembered, topic), true
	}
	if m.topic == "" || len(t.Recall) == 0 {
		return "", false
	}
	if answer, ok := t.Recall[textnorm.CanonicalKey(tokens)]; ok {
		return strings.ReplaceAll(answer, "{topic}", m.topic), true
	}
	return "", false
}

// CurrentTopic returns the last captured topic, or "".
func (m *Manager) CurrentTopic() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topic
}

// Fill substitutes <slot> placeholders in a corpus response. <topic> prefers
// the current topic. Missing values become the unknown marker. One "|"
// alternative is then picked.
func (m *Manager) Fill(ctx context.Context, resp string) string {
	m.mu.Lock()
	topic := m.topic
	m.mu.Unlock()

	out := placeholderRe.ReplaceAllStringFunc(resp, func(ph string) string {
		name := ph[1 : len(ph)-1]
		if strings.EqualFold(name, "topic") && topic != "" {
			return topic
		}
		if v := m.readSlot(ctx, name); v != "" {
			return v
		}
		return m.msgs.Unknown
	})
	return m.pickAlternative(out)
}

// IsRecallIntent reports whether input asks what was talked about.
func (m *Manager) IsRecallIntent(input string) bool {
	norm := textnorm.Normalize(input)
	if norm == "" {
		return false
	}
	for _, phrase := range m.msgs.RecallPhrases {
		if p := textnorm.Normalize(phrase); p != "" && strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// RecallConversation describes the most recent memory entry or, failing
// that, the last first-person message, addressed back to the user.
func (m *Manager) RecallConversation() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.memories.Items() {
		switch e.Type {
		case "event":
			what := e.Predicate
			if e.Object != "" {
				what += " " + e.Object
			}
			return fmt.Sprintf(m.msgs.EventRecall, what), true
		case "state":
			return fmt.Sprintf(m.msgs.StateRecall, e.Predicate), true
		case "fact":
			return secondPerson(e.RawText, m.msgs.SecondPerson), true
		}
	}
	for _, msg := range m.recent.Items() {
		toks := textnorm.TokenSet(textnorm.Tokenize(msg.Normalized))
		for _, fp := range m.msgs.FirstPerson {
			if _, ok := toks[fp]; ok {
				return secondPerson(msg.Text, m.msgs.SecondPerson), true
			}
		}
	}
	return "", false
}

// Entries returns the memory log, newest first.
func (m *Manager) Entries() []model.MemoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memories.Items()
}

// Recent returns recent user messages, newest first.
func (m *Manager) Recent() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recent.Items()
}

// Clear forgets recent messages, the memory log and the current topic.
// Persisted slots are kept.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent.Reset()
	m.memories.Reset()
	m.topic = ""
}
