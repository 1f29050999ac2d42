// Package config loads pawscribe settings from an optional YAML file and
// PAWSCRIBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rcliao/pawscribe/internal/match"
	"github.com/rcliao/pawscribe/internal/throttle"
)

// EnvPrefix prefixes every environment override, e.g. PAWSCRIBE_DIR.
const EnvPrefix = "PAWSCRIBE"

// Slot backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config holds the application's configuration
type Config struct {
	Dir           string        `mapstructure:"dir"`
	DB            string        `mapstructure:"db"`
	SlotBackend   string        `mapstructure:"slot_backend"`
	BadgerDir     string        `mapstructure:"badger_dir"`
	CacheSize     int           `mapstructure:"cache_size"`
	SpamWindow    time.Duration `mapstructure:"spam_window"`
	SpamCeiling   int           `mapstructure:"spam_ceiling"`
	Password      string        `mapstructure:"password"`
	LogLevel      string        `mapstructure:"log_level"`
	Locale        string        `mapstructure:"locale"`
	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	Policy        match.Policy  `mapstructure:"policy"`
}

// DefaultHome is where the database and badger files live unless configured.
func DefaultHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pawscribe")
}

// Load reads configuration. With an empty path it looks for pawscribe.yaml
// in the working directory and ~/.pawscribe, and a missing file is fine; a
// path that is given must exist.
func Load(logger *zap.Logger, path string) (*Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pawscribe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultHome())
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		logger.Debug("no config file, using defaults and env vars")
	} else {
		logger.Debug("loaded config", zap.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home := DefaultHome()
	v.SetDefault("dir", ".")
	v.SetDefault("db", filepath.Join(home, "pawscribe.db"))
	v.SetDefault("slot_backend", BackendSQLite)
	v.SetDefault("badger_dir", filepath.Join(home, "slots"))
	v.SetDefault("cache_size", throttle.DefaultCacheSize)
	v.SetDefault("spam_window", throttle.DefaultSpamWindow)
	v.SetDefault("spam_ceiling", throttle.DefaultSpamCeiling)
	v.SetDefault("password", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("locale", "en")
	v.SetDefault("watch", false)
	v.SetDefault("watch_debounce", 500*time.Millisecond)

	p := match.DefaultPolicy()
	v.SetDefault("policy.min_overlap", p.MinOverlap)
	v.SetDefault("policy.max_candidates", p.MaxCandidates)
	v.SetDefault("policy.max_subquery", p.MaxSubquery)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.SlotBackend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("slot_backend %q: want %s or %s", c.SlotBackend, BackendSQLite, BackendBadger)
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	if c.SpamCeiling < 1 {
		return fmt.Errorf("spam_ceiling must be positive, got %d", c.SpamCeiling)
	}
	if c.SpamWindow <= 0 {
		return fmt.Errorf("spam_window must be positive, got %s", c.SpamWindow)
	}
	return nil
}
