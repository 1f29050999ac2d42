package dialog

import (
	"context"
	"sync"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// State is the context the switcher currently answers from.
type State struct {
	Active string `json:"active"`
	Locked bool   `json:"locked"`
}

// Switcher owns the active snapshot and the base hints used to pick a new
// context. Snapshots are swapped whole; readers never see a partial one.
type Switcher struct {
	loader *corpus.Loader
	holder *corpus.Holder

	mu   sync.Mutex
	lex  *textnorm.Lexicon
	base *corpus.Snapshot
}

// NewSwitcher returns a switcher on the base context. Call Reset before use
// to load it.
func NewSwitcher(loader *corpus.Loader) *Switcher {
	lex := textnorm.NewLexicon()
	base := corpus.Fallback(corpus.BaseContext, lex)
	return &Switcher{
		loader: loader,
		holder: corpus.NewHolder(base),
		lex:    lex,
		base:   base,
	}
}

// Current returns the active snapshot.
func (s *Switcher) Current() *corpus.Snapshot { return s.holder.Load() }

// State returns the active context name and lock flag.
func (s *Switcher) State() State {
	cur := s.Current()
	return State{Active: cur.Name, Locked: cur.Locked}
}

// Lexicon returns the lexicon the snapshots were folded with.
func (s *Switcher) Lexicon() *textnorm.Lexicon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lex
}

// Hints returns the context hints declared in the base file.
func (s *Switcher) Hints() []corpus.Hint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base.Hints
}

// SetLexicon replaces the lexicon used for subsequent loads.
func (s *Switcher) SetLexicon(lex *textnorm.Lexicon) {
	s.mu.Lock()
	s.lex = lex
	s.mu.Unlock()
}

// Reset loads the base context, makes it active and unlocks.
func (s *Switcher) Reset(ctx context.Context) *corpus.Snapshot {
	base := s.loader.LoadContext(ctx, corpus.BaseContext, s.Lexicon())
	s.mu.Lock()
	s.base = base
	s.mu.Unlock()
	s.holder.Swap(base)
	return base
}

// SwitchTo loads name and makes it active. Its own lock flag applies.
func (s *Switcher) SwitchTo(ctx context.Context, name string) *corpus.Snapshot {
	if name == corpus.BaseContext {
		return s.Reset(ctx)
	}
	snap := s.loader.LoadContext(ctx, name, s.Lexicon())
	s.holder.Swap(snap)
	return snap
}

// Reload re-reads the active context, and the base hints with it.
func (s *Switcher) Reload(ctx context.Context) *corpus.Snapshot {
	name := s.Current().Name
	base := s.Reset(ctx)
	if name == corpus.BaseContext {
		return base
	}
	return s.SwitchTo(ctx, name)
}

// Detect picks the hint sharing the most tokens with the query. Ties go to
// the earliest hint; no overlap means no context.
func Detect(tokens []string, hints []corpus.Hint) (string, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	q := textnorm.TokenSet(tokens)
	best, bestCount := "", 0
	for _, h := range hints {
		n := 0
		for t := range textnorm.TokenSet(h.Tokens) {
			if _, ok := q[t]; ok {
				n++
			}
		}
		if n > bestCount {
			best, bestCount = h.Context, n
		}
	}
	return best, bestCount > 0
}
