package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/pawscribe/internal/match"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, filepath.Join(home, ".pawscribe", "pawscribe.db"), cfg.DB)
	assert.Equal(t, BackendSQLite, cfg.SlotBackend)
	assert.Equal(t, 100, cfg.CacheSize)
	assert.Equal(t, 60*time.Second, cfg.SpamWindow)
	assert.Equal(t, 5, cfg.SpamCeiling)
	assert.Equal(t, "en", cfg.Locale)
	assert.False(t, cfg.Watch)
	assert.Equal(t, 2, cfg.Policy.MinOverlap)
	assert.Equal(t, 8, cfg.Policy.MaxCandidates)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "pawscribe.yaml")
	yaml := `
dir: /srv/templates
slot_backend: badger
cache_size: 10
spam_window: 30s
locale: ru
policy:
  max_candidates: 4
  distance:
    - max_len: 5
      distance: 1
    - max_len: 0
      distance: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("PAWSCRIBE_CACHE_SIZE", "25")
	t.Setenv("PAWSCRIBE_POLICY_MIN_OVERLAP", "3")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/templates", cfg.Dir)
	assert.Equal(t, BackendBadger, cfg.SlotBackend)
	assert.Equal(t, 25, cfg.CacheSize)
	assert.Equal(t, 30*time.Second, cfg.SpamWindow)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 3, cfg.Policy.MinOverlap)
	assert.Equal(t, 4, cfg.Policy.MaxCandidates)
	assert.Equal(t, []match.DistanceBand{{MaxLen: 5, Distance: 1}, {MaxLen: 0, Distance: 2}}, cfg.Policy.Distance)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PAWSCRIBE_SLOT_BACKEND", "redis")
	_, err := Load(nil, "")
	assert.ErrorContains(t, err, "slot_backend")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}
