// Package corpus parses template files into immutable, indexed snapshots.
package corpus

import (
	"math"
	"sync/atomic"

	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// BaseContext is the context every session starts in.
const BaseContext = "base.txt"

// SharedFiles are searched, in order, when the active context has no answer.
var SharedFiles = []string{
	"core1.txt", "core2.txt", "core3.txt", "core4.txt", "core5.txt",
	"core6.txt", "core7.txt", "core8.txt", "core9.txt",
}

// Hint routes queries to another context file when their tokens overlap.
type Hint struct {
	Key     string   `json:"key"`
	Tokens  []string `json:"tokens"`
	Context string   `json:"context"`
}

// Snapshot is one fully built context. It is never mutated after Build.
type Snapshot struct {
	Name      string
	Templates map[string][]string
	Keywords  map[string][]string
	Index     map[string][]string
	Weights   map[string]float64
	Lexicon   *textnorm.Lexicon
	Locked    bool
	Hints     []Hint
	Persona   model.Persona
	Fallback  bool
	Skipped   int

	templateOrder []string
	keywordOrder  []string
}

// TemplateKeys returns template keys in file order.
func (s *Snapshot) TemplateKeys() []string { return s.templateOrder }

// KeywordKeys returns keyword keys in file order.
func (s *Snapshot) KeywordKeys() []string { return s.keywordOrder }

// Weight returns the weight of a token, 1 when unknown.
func (s *Snapshot) Weight(token string) float64 {
	if w, ok := s.Weights[token]; ok {
		return w
	}
	return 1
}

// Builder accumulates entries in insertion order.
type Builder struct {
	snap *Snapshot
}

// NewBuilder starts a snapshot named name using lex for folding.
func NewBuilder(name string, lex *textnorm.Lexicon) *Builder {
	if lex == nil {
		lex = textnorm.NewLexicon()
	}
	return &Builder{snap: &Snapshot{
		Name:      name,
		Templates: make(map[string][]string),
		Keywords:  make(map[string][]string),
		Lexicon:   lex,
	}}
}

// AddTemplate registers responses under key. A repeated key replaces the
// earlier responses but keeps its original position.
func (b *Builder) AddTemplate(key string, responses []string) {
	if _, ok := b.snap.Templates[key]; !ok {
		b.snap.templateOrder = append(b.snap.templateOrder, key)
	}
	b.snap.Templates[key] = responses
}

// AddKeyword registers a keyword entry.
func (b *Builder) AddKeyword(key string, responses []string) {
	if _, ok := b.snap.Keywords[key]; !ok {
		b.snap.keywordOrder = append(b.snap.keywordOrder, key)
	}
	b.snap.Keywords[key] = responses
}

// AddHint registers a context detection hint. Later hints for the same key
// replace the target but keep the first-seen position.
func (b *Builder) AddHint(key, context string) {
	for i := range b.snap.Hints {
		if b.snap.Hints[i].Key == key {
			b.snap.Hints[i].Context = context
			return
		}
	}
	b.snap.Hints = append(b.snap.Hints, Hint{
		Key:     key,
		Tokens:  textnorm.KeyTokens(key),
		Context: context,
	})
}

// Lock marks the snapshot as locked.
func (b *Builder) Lock() { b.snap.Locked = true }

// Skip counts a rejected line.
func (b *Builder) Skip() { b.snap.Skipped++ }

// Build derives the index and weights and returns the finished snapshot.
func (b *Builder) Build() *Snapshot {
	s := b.snap
	s.Index = BuildIndex(s.templateOrder)
	s.Weights = ComputeWeights(s.templateOrder)
	b.snap = nil
	return s
}

// BuildIndex maps each token to the keys containing it, without duplicates.
func BuildIndex(keys []string) map[string][]string {
	idx := make(map[string][]string)
	for _, key := range keys {
		for _, tok := range textnorm.KeyTokens(key) {
			bucket := idx[tok]
			if len(bucket) > 0 && containsString(bucket, key) {
				continue
			}
			idx[tok] = append(bucket, key)
		}
	}
	return idx
}

// ComputeWeights gives every token a smoothed inverse document frequency
// over template keys: ln((N+1)/(df+1)) + 1. Rarer tokens weigh more.
func ComputeWeights(keys []string) map[string]float64 {
	df := make(map[string]int)
	for _, key := range keys {
		for tok := range textnorm.TokenSet(textnorm.KeyTokens(key)) {
			df[tok]++
		}
	}
	n := float64(len(keys))
	weights := make(map[string]float64, len(df))
	for tok, c := range df {
		weights[tok] = math.Log((n+1)/(float64(c)+1)) + 1
	}
	return weights
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Holder publishes the active snapshot. Readers call Load once per query
// attempt and keep using that pointer.
type Holder struct {
	p atomic.Pointer[Snapshot]
}

// NewHolder returns a holder publishing s.
func NewHolder(s *Snapshot) *Holder {
	h := &Holder{}
	h.p.Store(s)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Snapshot { return h.p.Load() }

// Swap publishes s and returns the previous snapshot.
func (h *Holder) Swap(s *Snapshot) *Snapshot { return h.p.Swap(s) }
