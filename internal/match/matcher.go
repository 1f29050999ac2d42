package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// Stage names the pipeline step that produced a result.
type Stage int

const (
	StageNone Stage = iota
	StageExact
	StageSubquery
	StageKeyword
	StageJaccard
	StageLevenshtein
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageSubquery:
		return "subquery"
	case StageKeyword:
		return "keyword"
	case StageJaccard:
		return "jaccard"
	case StageLevenshtein:
		return "levenshtein"
	default:
		return "none"
	}
}

// Query is a folded user query.
type Query struct {
	Tokens []string
	Joined string
	Key    string
	Set    map[string]struct{}
}

// NewQuery builds a query from folded tokens.
func NewQuery(tokens []string) Query {
	return Query{
		Tokens: tokens,
		Joined: strings.Join(tokens, " "),
		Key:    textnorm.CanonicalKey(tokens),
		Set:    textnorm.TokenSet(tokens),
	}
}

// Empty reports whether nothing can match the query.
func (q Query) Empty() bool { return q.Key == "" }

// Len is the rune length of the canonical key.
func (q Query) Len() int { return utf8.RuneCountInString(q.Key) }

// Result is the outcome of matching one snapshot.
type Result struct {
	Response string
	Stage    Stage
	Key      string
	Score    float64
}

// Matched reports whether a response was found.
func (r Result) Matched() bool { return r.Stage != StageNone }

// Matcher runs the matching pipeline.
type Matcher struct {
	policy Policy
	picker Picker
}

// NewMatcher returns a matcher. A nil picker picks at random.
func NewMatcher(policy Policy, picker Picker) *Matcher {
	if picker == nil {
		picker = RandomPicker{}
	}
	return &Matcher{policy: policy.withDefaults(), picker: picker}
}

// Policy returns the thresholds in use.
func (m *Matcher) Policy() Policy { return m.policy }

// Pick chooses one response through the matcher's picker.
func (m *Matcher) Pick(responses []string) string { return m.picker.PickOne(responses) }

// Match runs exact, sub-query, keyword and, unless the snapshot is locked,
// the fuzzy stages. It never returns an error; no match is StageNone.
func (m *Matcher) Match(s *corpus.Snapshot, q Query) Result {
	if s == nil || q.Empty() {
		return Result{}
	}
	if r := m.exact(s, q); r.Matched() {
		return r
	}
	if r := m.subquery(s, q); r.Matched() {
		return r
	}
	if r := m.keyword(s, q); r.Matched() {
		return r
	}
	if s.Locked {
		return Result{}
	}
	return m.Fuzzy(s, q, m.Candidates(s, q))
}

func (m *Matcher) exact(s *corpus.Snapshot, q Query) Result {
	if rs, ok := s.Templates[q.Key]; ok && len(rs) > 0 {
		return Result{Response: m.Pick(rs), Stage: StageExact, Key: q.Key, Score: 1}
	}
	return Result{}
}

// subquery looks up single tokens, then adjacent bigrams, collecting up to
// MaxSubquery partial answers.
func (m *Matcher) subquery(s *corpus.Snapshot, q Query) Result {
	var parts []string
	seen := make(map[string]bool)
	full := func() bool { return len(parts) >= m.policy.MaxSubquery }

	for _, tok := range q.Tokens {
		if full() {
			break
		}
		if seen[tok] || utf8.RuneCountInString(tok) < 2 {
			continue
		}
		if rs := s.Templates[tok]; len(rs) > 0 {
			parts = append(parts, m.Pick(rs))
			seen[tok] = true
		}
		if !full() {
			if rs := s.Keywords[tok]; len(rs) > 0 {
				parts = append(parts, m.Pick(rs))
				seen[tok] = true
			}
		}
	}
	for i := 0; i+1 < len(q.Tokens) && !full(); i++ {
		bigram := textnorm.CanonicalKey(q.Tokens[i : i+2])
		if seen[bigram] {
			continue
		}
		if rs := s.Templates[bigram]; len(rs) > 0 {
			parts = append(parts, m.Pick(rs))
			seen[bigram] = true
		}
	}
	if len(parts) == 0 {
		return Result{}
	}
	return Result{Response: strings.Join(parts, ". "), Stage: StageSubquery}
}

// keyword returns the first keyword entry, in file order, sharing a token
// with the query.
func (m *Matcher) keyword(s *corpus.Snapshot, q Query) Result {
	for _, key := range s.KeywordKeys() {
		rs := s.Keywords[key]
		if len(rs) == 0 {
			continue
		}
		for _, t := range textnorm.KeyTokens(key) {
			if _, ok := q.Set[t]; ok {
				return Result{Response: m.Pick(rs), Stage: StageKeyword, Key: key}
			}
		}
	}
	return Result{}
}

// Candidates builds the fuzzy candidate pool from the inverted index, or by
// length proximity when no query token is indexed at all.
func (m *Matcher) Candidates(s *corpus.Snapshot, q Query) []string {
	counts := make(map[string]int)
	for tok := range q.Set {
		for _, key := range s.Index[tok] {
			counts[key]++
		}
	}

	if len(counts) > 0 {
		var pool []string
		for key, c := range counts {
			if c >= m.policy.MinOverlap {
				pool = append(pool, key)
			}
		}
		sort.Slice(pool, func(i, j int) bool {
			if counts[pool[i]] != counts[pool[j]] {
				return counts[pool[i]] > counts[pool[j]]
			}
			return pool[i] < pool[j]
		})
		return capList(pool, m.policy.MaxCandidates)
	}

	qLen := q.Len()
	maxDist := m.policy.FuzzyDistance(qLen)
	var pool []string
	for _, key := range s.TemplateKeys() {
		if abs(utf8.RuneCountInString(key)-qLen) <= maxDist {
			pool = append(pool, key)
			if len(pool) == m.policy.MaxCandidates {
				break
			}
		}
	}
	return pool
}

// Fuzzy scores candidates by weighted Jaccard and, failing that, by bounded
// edit distance on the canonical key.
func (m *Matcher) Fuzzy(s *corpus.Snapshot, q Query, candidates []string) Result {
	if r := m.jaccard(s, q, candidates); r.Matched() {
		return r
	}
	return m.levenshtein(s, q, candidates)
}

func (m *Matcher) jaccard(s *corpus.Snapshot, q Query, candidates []string) Result {
	best, bestScore := "", 0.0
	for _, key := range candidates {
		keySet := textnorm.TokenSet(textnorm.KeyTokens(key))
		if len(keySet) == 0 {
			continue
		}
		score := WeightedJaccard(q.Set, keySet, s.Weight)
		if score > bestScore {
			best, bestScore = key, score
		}
	}
	if best != "" && bestScore >= m.policy.JaccardThreshold(q.Len()) {
		if rs := s.Templates[best]; len(rs) > 0 {
			return Result{Response: m.Pick(rs), Stage: StageJaccard, Key: best, Score: bestScore}
		}
	}
	return Result{}
}

func (m *Matcher) levenshtein(s *corpus.Snapshot, q Query, candidates []string) Result {
	qLen := q.Len()
	maxDist := m.policy.FuzzyDistance(qLen)
	bound := maxDist
	best, bestDist := "", maxDist+1
	for _, key := range candidates {
		if abs(utf8.RuneCountInString(key)-qLen) > maxDist+1 {
			continue
		}
		d := Levenshtein(q.Key, key, bound)
		if d < bestDist {
			best, bestDist = key, d
			if d == 0 {
				break
			}
			bound = d - 1
		}
	}
	if best != "" && bestDist <= maxDist {
		if rs := s.Templates[best]; len(rs) > 0 {
			return Result{Response: m.Pick(rs), Stage: StageLevenshtein, Key: best, Score: float64(bestDist)}
		}
	}
	return Result{}
}

// MatchFile is the simpler pass used for shared files: exact (canonical and
// as typed), keyword, Jaccard over every template and edit distance over the
// first MaxCandidates templates. It ignores locking and the index.
func (m *Matcher) MatchFile(s *corpus.Snapshot, q Query) Result {
	if s == nil || q.Empty() {
		return Result{}
	}
	if r := m.exact(s, q); r.Matched() {
		return r
	}
	if rs := s.Templates[q.Joined]; len(rs) > 0 {
		return Result{Response: m.Pick(rs), Stage: StageExact, Key: q.Joined, Score: 1}
	}
	if r := m.keyword(s, q); r.Matched() {
		return r
	}
	if r := m.jaccard(s, q, s.TemplateKeys()); r.Matched() {
		return r
	}
	return m.levenshtein(s, q, capList(s.TemplateKeys(), m.policy.MaxCandidates))
}

func capList(list []string, n int) []string {
	if n > 0 && len(list) > n {
		return list[:n]
	}
	return list
}
