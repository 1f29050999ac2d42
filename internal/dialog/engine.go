// Package dialog turns one line of user input into one reply. It owns the
// active context, the response cache, the repeat guard and the fallback
// chain over shared files and memory.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/match"
	"github.com/rcliao/pawscribe/internal/memory"
	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/source"
	"github.com/rcliao/pawscribe/internal/textnorm"
	"github.com/rcliao/pawscribe/internal/throttle"
)

// maxAttempts bounds the locked-context retry loop.
const maxAttempts = 2

var fileRefRe = regexp.MustCompile(`(?i)([\p{L}\p{N}\-._/\\]+\.txt)`)

// Source says which part of the engine produced a reply.
type Source string

const (
	SourceNone     Source = ""
	SourceCommand  Source = "command"
	SourceSpam     Source = "spam"
	SourceCache    Source = "cache"
	SourceRecall   Source = "recall"
	SourceContext  Source = "context"
	SourceTopic    Source = "topic"
	SourceShared   Source = "shared"
	SourceMemory   Source = "memory"
	SourceFallback Source = "fallback"
)

// Reply is the answer to one input.
type Reply struct {
	Text    string `json:"text"`
	Source  Source `json:"source"`
	Stage   string `json:"stage,omitempty"`
	Context string `json:"context"`
}

// Empty reports whether the input was ignored.
func (r Reply) Empty() bool { return r.Source == SourceNone }

// Config holds the engine's tunables.
type Config struct {
	Policy      match.Policy
	CacheSize   int
	SpamWindow  time.Duration
	SpamCeiling int
	Locale      string
}

// Options are the engine's collaborators. All are optional.
type Options struct {
	Slots  memory.SlotStore
	Events memory.EventLog
	Picker match.Picker
	Now    func() time.Time
	Logger *zap.Logger
}

// Stats describes the engine's current state.
type Stats struct {
	Context      string `json:"context"`
	Locked       bool   `json:"locked"`
	Templates    int    `json:"templates"`
	Keywords     int    `json:"keywords"`
	Hints        int    `json:"hints"`
	SharedFiles  int    `json:"shared_files"`
	CacheEntries int    `json:"cache_entries"`
	Memories     int    `json:"memories"`
	Topic        string `json:"topic,omitempty"`
}

// Engine answers user input. It is safe for concurrent use.
type Engine struct {
	loader   *corpus.Loader
	switcher *Switcher
	matcher  *match.Matcher
	memory   *memory.Manager
	cache    *throttle.Cache
	spam     *throttle.SpamGuard
	replies  Replies
	picker   match.Picker
	logger   *zap.Logger

	mu     sync.RWMutex
	shared []*corpus.Snapshot
}

// New builds an engine reading templates from src. Call Reload before the
// first Respond.
func New(src source.Reader, cfg Config, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Picker == nil {
		opts.Picker = match.RandomPicker{}
	}
	cache, err := throttle.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	msgs := memory.MessagesFor(cfg.Locale)
	loader := corpus.NewLoader(src, opts.Logger)
	return &Engine{
		loader:   loader,
		switcher: NewSwitcher(loader),
		matcher:  match.NewMatcher(cfg.Policy, opts.Picker),
		memory: memory.NewManager(opts.Slots, memory.Options{
			Events:   opts.Events,
			Picker:   opts.Picker,
			Messages: &msgs,
			Now:      opts.Now,
			Logger:   opts.Logger,
		}),
		cache:   cache,
		spam:    throttle.NewSpamGuard(cfg.SpamWindow, cfg.SpamCeiling, opts.Now),
		replies: RepliesFor(cfg.Locale),
		picker:  opts.Picker,
		logger:  opts.Logger,
	}, nil
}

// Memory returns the slot extractor and memory log.
func (e *Engine) Memory() *memory.Manager { return e.memory }

// State returns the active context.
func (e *Engine) State() State { return e.switcher.State() }

// Hints returns the context routes declared in base.txt.
func (e *Engine) Hints() []corpus.Hint { return e.switcher.Hints() }

// Persona returns the active context's metadata.
func (e *Engine) Persona() model.Persona { return e.switcher.Current().Persona }

// Suggest returns up to limit triggers of the active context resembling
// input.
func (e *Engine) Suggest(input string, limit int) []string {
	return match.Suggest(e.switcher.Current(), input, limit)
}

// Reload re-reads the lexicon, the base and active contexts, the shared
// files and the memory rules, then empties the cache. On a shared-file read
// error the previous shared files are kept.
func (e *Engine) Reload(ctx context.Context) error {
	lex := e.loader.LoadLexicon(ctx)
	e.switcher.SetLexicon(lex)
	e.switcher.Reload(ctx)
	e.memory.SetRules(memory.LoadRules(ctx, e.loader.Source(), lex, e.logger))

	shared, err := e.loader.LoadShared(ctx, lex)
	if err == nil {
		e.mu.Lock()
		e.shared = shared
		e.mu.Unlock()
	}
	e.cache.Purge()
	if err != nil {
		return fmt.Errorf("load shared files: %w", err)
	}
	return nil
}

// Clear empties the cache and repeat counters and returns to the base
// context. Remembered slots and entries are kept.
func (e *Engine) Clear(ctx context.Context) {
	e.cache.Purge()
	e.spam.Reset()
	e.switcher.Reset(ctx)
}

// Stats reports counts for the active context.
func (e *Engine) Stats() Stats {
	cur := e.switcher.Current()
	e.mu.RLock()
	shared := len(e.shared)
	e.mu.RUnlock()
	return Stats{
		Context:      cur.Name,
		Locked:       cur.Locked,
		Templates:    len(cur.Templates),
		Keywords:     len(cur.Keywords),
		Hints:        len(e.switcher.Hints()),
		SharedFiles:  shared,
		CacheEntries: e.cache.Len(),
		Memories:     len(e.memory.Entries()),
		Topic:        e.memory.CurrentTopic(),
	}
}

// Watch reloads the engine whenever template files in a source.Dir change.
// It returns the running watcher; callers Stop it when done.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration) (*source.Watcher, error) {
	dir, ok := e.loader.Source().(*source.Dir)
	if !ok {
		return nil, errors.New("watch: source is not a directory")
	}
	w, err := source.NewWatcher(dir.Root(), debounce, func(ctx context.Context, names []string) {
		if err := e.Reload(ctx); err != nil {
			e.logger.Warn("reload after change", zap.Strings("files", names), zap.Error(err))
		}
	}, e.logger)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir.Root(), err)
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// Respond answers one line of input. Blank input, and input made only of
// stopwords, yields an empty Reply.
func (e *Engine) Respond(ctx context.Context, input string) Reply {
	text := strings.TrimSpace(input)
	if text == "" {
		return Reply{}
	}
	if e.isCommand(text) {
		return e.command(ctx, text)
	}

	lex := e.switcher.Lexicon()
	folded, _ := lex.Fold(textnorm.Tokenize(textnorm.Normalize(text)))
	q := match.NewQuery(folded)
	if q.Empty() {
		return Reply{}
	}

	if e.spam.Hit(q.Key) {
		e.logger.Debug("repeat throttled", zap.String("key", q.Key))
		return e.reply(e.picker.PickOne(e.replies.AntiSpam), SourceSpam, "")
	}
	if cached, ok := e.cache.Get(q.Key); ok {
		e.memory.Process(ctx, text)
		return e.reply(cached, SourceCache, "")
	}
	if e.memory.IsRecallIntent(text) {
		if resp, ok := e.memory.RecallConversation(); ok {
			return e.reply(resp, SourceRecall, "")
		}
	}

	if res, ok := e.matchContext(ctx, q); ok {
		return e.finish(ctx, text, q, res.Response, SourceContext, res.Stage.String(), true)
	}
	if resp, ok := e.memory.Topic(ctx, folded); ok {
		return e.reply(resp, SourceTopic, "")
	}
	if res, ok := e.matchShared(q); ok {
		resp := e.resolveFileRef(ctx, res.Response, q)
		return e.finish(ctx, text, q, resp, SourceShared, res.Stage.String(), true)
	}
	if resp, ok := e.memory.Process(ctx, text); ok {
		e.cache.Put(q.Key, resp)
		return e.reply(resp, SourceMemory, "")
	}

	resp := e.replies.Unknown
	if e.replies.isGreeting(textnorm.Tokenize(textnorm.Normalize(text))) {
		resp = e.replies.Greeting
	}
	return e.finish(ctx, text, q, resp, SourceFallback, "", false)
}

// matchContext runs the pipeline against the active context. A locked
// context that fails is dropped for base and retried; an unlocked one may
// hand the query to the context its hints point at.
func (e *Engine) matchContext(ctx context.Context, q match.Query) (match.Result, bool) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		snap := e.switcher.Current()
		if res := e.matcher.Match(snap, q); res.Matched() {
			return res, true
		}
		if snap.Locked {
			e.logger.Debug("locked context missed, resetting", zap.String("context", snap.Name))
			e.switcher.Reset(ctx)
			continue
		}

		name, ok := Detect(q.Tokens, e.switcher.Hints())
		if !ok || name == snap.Name {
			return match.Result{}, false
		}
		e.logger.Info("switching context", zap.String("from", snap.Name), zap.String("to", name))
		next := e.switcher.SwitchTo(ctx, name)
		if res := e.matcher.Match(next, q); res.Matched() {
			return res, true
		}
		return match.Result{}, false
	}
	return match.Result{}, false
}

func (e *Engine) matchShared(q match.Query) (match.Result, bool) {
	e.mu.RLock()
	shared := e.shared
	e.mu.RUnlock()
	for _, s := range shared {
		if res := e.matcher.MatchFile(s, q); res.Matched() {
			return res, true
		}
	}
	return match.Result{}, false
}

// resolveFileRef follows a shared response that names another template
// file, answering from that file instead. Every result has its slot
// placeholders filled.
func (e *Engine) resolveFileRef(ctx context.Context, resp string, q match.Query) string {
	ref := strings.Trim(strings.TrimSpace(resp), ": \t")
	m := fileRefRe.FindStringSubmatch(ref)
	if m == nil {
		return e.memory.Fill(ctx, resp)
	}
	name := strings.TrimSpace(m[1])
	snap, err := e.loader.LoadFile(ctx, name, e.switcher.Lexicon())
	if err != nil {
		e.logger.Debug("referenced file unavailable", zap.String("file", name), zap.Error(err))
		return e.memory.Fill(ctx, resp)
	}
	if res := e.matcher.MatchFile(snap, q); res.Matched() {
		return e.memory.Fill(ctx, res.Response)
	}

	var all []string
	for _, k := range snap.TemplateKeys() {
		all = append(all, snap.Templates[k]...)
	}
	for _, k := range snap.KeywordKeys() {
		all = append(all, snap.Keywords[k]...)
	}
	if len(all) > 0 {
		return e.memory.Fill(ctx, e.picker.PickOne(all))
	}
	return e.memory.Fill(ctx, resp)
}

// finish caches a final reply, first letting memory see the input when it
// has not already.
func (e *Engine) finish(ctx context.Context, text string, q match.Query, resp string, src Source, stage string, sideEffect bool) Reply {
	if sideEffect {
		e.memory.Process(ctx, text)
	}
	e.cache.Put(q.Key, resp)
	return e.reply(resp, src, stage)
}

func (e *Engine) reply(text string, src Source, stage string) Reply {
	return Reply{Text: text, Source: src, Stage: stage, Context: e.switcher.Current().Name}
}

func (e *Engine) isCommand(text string) bool {
	return strings.HasPrefix(text, "/") || slices.Contains(e.replies.ClearAliases, strings.ToLower(text))
}

func (e *Engine) command(ctx context.Context, raw string) Reply {
	cmd := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case cmd == "/reload":
		if err := e.Reload(ctx); err != nil {
			e.logger.Warn("reload", zap.Error(err))
		}
		return e.reply(e.replies.Reloaded, SourceCommand, "")
	case cmd == "/stats":
		cur := e.switcher.Current()
		return e.reply(fmt.Sprintf(e.replies.Stats, cur.Name, len(cur.Templates), len(cur.Keywords)), SourceCommand, "")
	case cmd == "/clear" || slices.Contains(e.replies.ClearAliases, cmd):
		e.Clear(ctx)
		return e.reply(e.replies.Cleared, SourceCommand, "")
	default:
		return e.reply(fmt.Sprintf(e.replies.UnknownCommand, raw), SourceCommand, "")
	}
}
