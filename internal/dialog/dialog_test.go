package dialog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/match"
	"github.com/rcliao/pawscribe/internal/memory"
	"github.com/rcliao/pawscribe/internal/source"
)

type mapSlots map[string]string

func (s mapSlots) GetSlot(_ context.Context, name string) (string, bool, error) {
	v, ok := s[name]
	return v, ok, nil
}

func (s mapSlots) SetSlot(_ context.Context, name, value string) error {
	s[name] = value
	return nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func testFiles() source.Map {
	return source.Map{
		corpus.BaseContext:  "hello=Hi there\n-thanks=You're welcome\n:weather=weather.txt:\n",
		"weather.txt":       "#CONTEXT\nforecast today=Sunny all day\n",
		"core1.txt":         "favorite color=My favorite color is teal, <name>\ntell story=:stories.txt:\n",
		"stories.txt":       "dragon tale=Once there was a dragon.\n",
		memory.RememberFile: "my name is <name>=Nice to meet you, <name>\n",
	}
}

func newTestEngine(t *testing.T, files source.Map, slots mapSlots) (*Engine, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	e, err := New(files, Config{}, Options{
		Slots:  slots,
		Picker: match.FirstPicker{},
		Now:    clk.Now,
	})
	require.NoError(t, err)
	require.NoError(t, e.Reload(context.Background()))
	return e, clk
}

func TestRespondTemplate(t *testing.T) {
	e, _ := newTestEngine(t, testFiles(), mapSlots{})
	r := e.Respond(context.Background(), "Hello!")
	assert.Equal(t, "Hi there", r.Text)
	assert.Equal(t, SourceContext, r.Source)
	assert.Equal(t, "exact", r.Stage)
	assert.Equal(t, corpus.BaseContext, r.Context)
}

func TestRespondKeyword(t *testing.T) {
	e, _ := newTestEngine(t, testFiles(), mapSlots{})
	r := e.Respond(context.Background(), "thanks a lot")
	assert.Equal(t, "You're welcome", r.Text)
	assert.Equal(t, SourceContext, r.Source)
}

func TestRespondRemembersName(t *testing.T) {
	ctx := context.Background()
	slots := mapSlots{}
	e, _ := newTestEngine(t, testFiles(), slots)

	r := e.Respond(ctx, "My name is Ann")
	assert.Equal(t, "Nice to meet you, Ann", r.Text)
	assert.Equal(t, SourceMemory, r.Source)
	assert.Equal(t, "Ann", slots["name"])

	r = e.Respond(ctx, "favorite color")
	assert.Equal(t, "My favorite color is teal, Ann", r.Text)
	assert.Equal(t, SourceShared, r.Source)
}

func TestRespondThrottlesRepeats(t *testing.T) {
	ctx := context.Background()
	e, clk := newTestEngine(t, testFiles(), mapSlots{})

	for i := 0; i < 4; i++ {
		r := e.Respond(ctx, "hello")
		assert.Equal(t, "Hi there", r.Text, "attempt %d", i+1)
		clk.now = clk.now.Add(time.Second)
	}
	r := e.Respond(ctx, "hello")
	assert.Equal(t, SourceSpam, r.Source)
	assert.Equal(t, EnglishReplies().AntiSpam[0], r.Text)
}

func TestRespondSpacedRepeatsAreNotThrottled(t *testing.T) {
	ctx := context.Background()
	e, clk := newTestEngine(t, testFiles(), mapSlots{})
	for i := 0; i < 10; i++ {
		r := e.Respond(ctx, "hello")
		assert.NotEqual(t, SourceSpam, r.Source, "attempt %d", i+1)
		clk.now = clk.now.Add(61 * time.Second)
	}
}

func TestRespondCacheHitFeedsMemory(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testFiles(), mapSlots{})

	first := e.Respond(ctx, "hello")
	second := e.Respond(ctx, "HELLO")
	assert.Equal(t, SourceContext, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Text, second.Text)
	assert.Len(t, e.Memory().Recent(), 2)
}

func TestRespondSwitchesAndResetsLockedContext(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testFiles(), mapSlots{})

	r := e.Respond(ctx, "weather forecast today")
	assert.Equal(t, "Sunny all day", r.Text)
	assert.Equal(t, "weather.txt", r.Context)
	assert.Equal(t, State{Active: "weather.txt", Locked: true}, e.State())

	r = e.Respond(ctx, "hello")
	assert.Equal(t, "Hi there", r.Text)
	assert.Equal(t, State{Active: corpus.BaseContext}, e.State())
}

func TestRespondResolvesFileReference(t *testing.T) {
	e, _ := newTestEngine(t, testFiles(), mapSlots{})
	r := e.Respond(context.Background(), "tell story")
	assert.Equal(t, "Once there was a dragon.", r.Text)
	assert.Equal(t, SourceShared, r.Source)
}

func TestRespondFallback(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testFiles(), mapSlots{})

	r := e.Respond(ctx, "qwerty zzz")
	assert.Equal(t, EnglishReplies().Unknown, r.Text)
	assert.Equal(t, SourceFallback, r.Source)

	r = e.Respond(ctx, "hi qwerty")
	assert.Equal(t, EnglishReplies().Greeting, r.Text)
}

func TestRespondIgnoresBlankInput(t *testing.T) {
	e, _ := newTestEngine(t, testFiles(), mapSlots{})
	assert.True(t, e.Respond(context.Background(), "  ?! ").Empty())
	assert.True(t, e.Respond(context.Background(), "").Empty())
}

func TestRespondRecallIntent(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testFiles(), mapSlots{})

	e.Respond(ctx, "My name is Ann")
	r := e.Respond(ctx, "So, what did we talk about?")
	assert.Equal(t, SourceRecall, r.Source)
	assert.Equal(t, "your name is Ann", r.Text)
}

func TestRespondMissingFilesUseFallbackTemplates(t *testing.T) {
	e, _ := newTestEngine(t, source.Map{}, mapSlots{})
	r := e.Respond(context.Background(), "hello")
	assert.Equal(t, "Hello! How can I help?", r.Text)
	assert.Equal(t, SourceContext, r.Source)
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t, testFiles(), mapSlots{})

	r := e.Respond(ctx, "/stats")
	assert.Equal(t, "Context: base.txt, templates: 1, keywords: 1", r.Text)
	assert.Equal(t, SourceCommand, r.Source)

	assert.Equal(t, "Unknown command: /dance", e.Respond(ctx, "/dance").Text)
	assert.Equal(t, "Templates reloaded.", e.Respond(ctx, "/RELOAD").Text)

	e.Respond(ctx, "weather forecast today")
	require.Equal(t, "weather.txt", e.State().Active)
	require.Positive(t, e.Stats().CacheEntries)

	r = e.Respond(ctx, "/clear")
	assert.Equal(t, "Chat cleared.", r.Text)
	assert.Equal(t, State{Active: corpus.BaseContext}, e.State())
	assert.Zero(t, e.Stats().CacheEntries)
}

func TestRussianClearAlias(t *testing.T) {
	e, err := New(testFiles(), Config{Locale: "ru"}, Options{Picker: match.FirstPicker{}})
	require.NoError(t, err)
	require.NoError(t, e.Reload(context.Background()))

	r := e.Respond(context.Background(), "Очисти чат")
	assert.Equal(t, SourceCommand, r.Source)
	assert.Equal(t, RussianReplies().Cleared, r.Text)
}

func TestDetect(t *testing.T) {
	hints := []corpus.Hint{
		{Key: "rain", Tokens: []string{"rain"}, Context: "weather.txt"},
		{Key: "cat dog", Tokens: []string{"cat", "dog"}, Context: "pets.txt"},
		{Key: "dog", Tokens: []string{"dog"}, Context: "dogs.txt"},
	}
	tests := []struct {
		name   string
		tokens []string
		want   string
		ok     bool
	}{
		{"most overlap", []string{"my", "cat", "and", "dog"}, "pets.txt", true},
		{"tie keeps first", []string{"rain", "dog"}, "weather.txt", true},
		{"single", []string{"rain"}, "weather.txt", true},
		{"no overlap", []string{"hello"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Detect(tt.tokens, hints)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuggest(t *testing.T) {
	e, _ := newTestEngine(t, testFiles(), mapSlots{})
	assert.Equal(t, []string{"hello"}, e.Suggest("hel", 5))
}

func TestWatchReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	base := filepath.Join(dir, corpus.BaseContext)
	require.NoError(t, os.WriteFile(base, []byte("hello=Hi\n"), 0o644))

	e, err := New(source.NewDir(dir, "", nil), Config{}, Options{Picker: match.FirstPicker{}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.Reload(ctx))
	require.Equal(t, 1, e.Stats().Templates)

	w, err := e.Watch(ctx, 50*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(base, []byte("hello=Hi\nbye=See you\n"), 0o644))
	require.Eventually(t, func() bool {
		return e.Stats().Templates == 2
	}, 5*time.Second, 20*time.Millisecond)

	w.Stop()
}

func TestWatchRequiresDirectory(t *testing.T) {
	e, err := New(source.Map{}, Config{}, Options{})
	require.NoError(t, err)
	_, err = e.Watch(context.Background(), time.Second)
	assert.Error(t, err)
}
