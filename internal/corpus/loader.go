package corpus

import (
	"context"
	"errors"
	"math/rand/v2"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/source"
	"github.com/rcliao/pawscribe/internal/textnorm"
)

// Names of the lexicon files.
const (
	SynonymsFile  = "synonims.txt"
	StopwordsFile = "stopwords.txt"
)

// Loader builds snapshots from a source.Reader.
type Loader struct {
	src    source.Reader
	logger *zap.Logger
	// PickMascot chooses an index into the base context's mascot list.
	PickMascot func(n int) int
}

// NewLoader returns a loader reading from src.
func NewLoader(src source.Reader, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{src: src, logger: logger, PickMascot: rand.IntN}
}

// Source returns the underlying reader.
func (l *Loader) Source() source.Reader { return l.src }

// LoadLexicon reads the synonym and stopword files. Missing files yield an
// empty lexicon.
func (l *Loader) LoadLexicon(ctx context.Context) *textnorm.Lexicon {
	lex := textnorm.NewLexicon()
	if text, err := l.src.ReadText(ctx, SynonymsFile); err == nil {
		n := textnorm.ParseSynonyms(text, lex)
		l.logger.Debug("loaded synonyms", zap.Int("lines", n))
	} else {
		l.logReadErr(SynonymsFile, err)
	}
	if text, err := l.src.ReadText(ctx, StopwordsFile); err == nil {
		n := textnorm.ParseStopwords(text, lex)
		l.logger.Debug("loaded stopwords", zap.Int("count", n))
	} else {
		l.logReadErr(StopwordsFile, err)
	}
	return lex
}

// LoadContext parses a context file. When the file is missing or cannot be
// decrypted the built-in fallback snapshot is returned under the same name.
func (l *Loader) LoadContext(ctx context.Context, name string, lex *textnorm.Lexicon) *Snapshot {
	s, err := l.LoadFile(ctx, name, lex)
	if err != nil {
		l.logger.Warn("using fallback templates", zap.String("context", name), zap.Error(err))
		return Fallback(name, lex)
	}
	s.Persona = l.loadPersona(ctx, name)
	l.logger.Info("loaded context",
		zap.String("context", name),
		zap.Int("templates", len(s.Templates)),
		zap.Int("keywords", len(s.Keywords)),
		zap.Int("hints", len(s.Hints)),
		zap.Int("skipped", s.Skipped),
		zap.Bool("locked", s.Locked),
	)
	return s
}

// LoadFile parses a file without falling back. Errors from the source are
// returned unchanged so callers can test for source.ErrNotFound.
func (l *Loader) LoadFile(ctx context.Context, name string, lex *textnorm.Lexicon) (*Snapshot, error) {
	text, err := l.src.ReadText(ctx, name)
	if err != nil {
		return nil, err
	}
	s := Parse(name, text, lex, name == BaseContext)
	if s.Skipped > 0 {
		l.logger.Debug("skipped template lines", zap.String("file", name), zap.Int("count", s.Skipped))
	}
	return s, nil
}

// LoadShared parses the shared core files concurrently. Missing files are
// left out; the result keeps SharedFiles order.
func (l *Loader) LoadShared(ctx context.Context, lex *textnorm.Lexicon) ([]*Snapshot, error) {
	results := make([]*Snapshot, len(SharedFiles))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range SharedFiles {
		g.Go(func() error {
			s, err := l.LoadFile(gctx, name, lex)
			if err != nil {
				if isMissing(err) {
					return nil
				}
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Snapshot, 0, len(results))
	for _, s := range results {
		if s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *Loader) loadPersona(ctx context.Context, name string) model.Persona {
	p := DefaultPersona
	text, err := l.src.ReadText(ctx, MetadataFile(name))
	if err != nil {
		return p
	}
	p = ParseMetadata(text)
	if name == BaseContext && len(p.Mascots) > 0 && l.PickMascot != nil {
		m := p.Mascots[l.PickMascot(len(p.Mascots))]
		p.MascotName, p.MascotIcon = m.Name, m.Icon
		p.ThemeColor, p.ThemeBackground = m.Color, m.Background
	}
	return p
}

func (l *Loader) logReadErr(name string, err error) {
	if isMissing(err) {
		l.logger.Debug("optional file unavailable", zap.String("file", name), zap.Error(err))
		return
	}
	l.logger.Warn("read file", zap.String("file", name), zap.Error(err))
}

func isMissing(err error) bool {
	return errors.Is(err, source.ErrNotFound) || errors.Is(err, source.ErrDecryption)
}
