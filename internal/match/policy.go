// Package match scores a folded query against a corpus snapshot.
package match

// DistanceBand accepts up to Distance edits for keys of at most MaxLen runes.
// MaxLen 0 matches any length.
type DistanceBand struct {
	MaxLen   int `mapstructure:"max_len" json:"max_len" yaml:"max_len"`
	Distance int `mapstructure:"distance" json:"distance" yaml:"distance"`
}

// JaccardBand requires Threshold similarity for keys of at most MaxLen runes.
// MaxLen 0 matches any length.
type JaccardBand struct {
	MaxLen    int     `mapstructure:"max_len" json:"max_len" yaml:"max_len"`
	Threshold float64 `mapstructure:"threshold" json:"threshold" yaml:"threshold"`
}

// Policy holds the tunable limits of the matching pipeline.
type Policy struct {
	MinOverlap    int            `mapstructure:"min_overlap" json:"min_overlap" yaml:"min_overlap"`
	MaxCandidates int            `mapstructure:"max_candidates" json:"max_candidates" yaml:"max_candidates"`
	MaxSubquery   int            `mapstructure:"max_subquery" json:"max_subquery" yaml:"max_subquery"`
	Distance      []DistanceBand `mapstructure:"distance" json:"distance" yaml:"distance"`
	Jaccard       []JaccardBand  `mapstructure:"jaccard" json:"jaccard" yaml:"jaccard"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinOverlap:    2,
		MaxCandidates: 8,
		MaxSubquery:   3,
		Distance: []DistanceBand{
			{MaxLen: 4, Distance: 1},
			{MaxLen: 8, Distance: 2},
			{MaxLen: 0, Distance: 3},
		},
		Jaccard: []JaccardBand{
			{MaxLen: 10, Threshold: 0.3},
			{MaxLen: 20, Threshold: 0.4},
			{MaxLen: 0, Threshold: 0.75},
		},
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MinOverlap <= 0 {
		p.MinOverlap = d.MinOverlap
	}
	if p.MaxCandidates <= 0 {
		p.MaxCandidates = d.MaxCandidates
	}
	if p.MaxSubquery <= 0 {
		p.MaxSubquery = d.MaxSubquery
	}
	if len(p.Distance) == 0 {
		p.Distance = d.Distance
	}
	if len(p.Jaccard) == 0 {
		p.Jaccard = d.Jaccard
	}
	return p
}

// FuzzyDistance is the largest edit distance accepted for a key of n runes.
func (p Policy) FuzzyDistance(n int) int {
	bands := p.Distance
	if len(bands) == 0 {
		bands = DefaultPolicy().Distance
	}
	for _, b := range bands {
		if b.MaxLen == 0 || n <= b.MaxLen {
			return b.Distance
		}
	}
	return bands[len(bands)-1].Distance
}

// JaccardThreshold is the minimum weighted Jaccard score for a key of n runes.
func (p Policy) JaccardThreshold(n int) float64 {
	bands := p.Jaccard
	if len(bands) == 0 {
		bands = DefaultPolicy().Jaccard
	}
	for _, b := range bands {
		if b.MaxLen == 0 || n <= b.MaxLen {
			return b.Threshold
		}
	}
	return bands[len(bands)-1].Threshold
}
