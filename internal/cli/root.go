// Package cli implements the pawscribe CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rcliao/pawscribe/internal/config"
	"github.com/rcliao/pawscribe/internal/dialog"
	"github.com/rcliao/pawscribe/internal/memory"
	"github.com/rcliao/pawscribe/internal/source"
	"github.com/rcliao/pawscribe/internal/store"
)

var (
	dbPath     string
	dirFlag    string
	configPath string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "pawscribe",
	Short: "Offline rule-based chat responder",
	Long:  "Answers chat input from a folder of plain-text templates. No network, no model. SQLite-backed memory, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Template folder (default: $PAWSCRIBE_DIR or .)")
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $PAWSCRIBE_DB or ~/.pawscribe/pawscribe.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./pawscribe.yaml or ~/.pawscribe/pawscribe.yaml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json, yaml or text")
}

func loadConfig() *config.Config {
	cfg, err := config.Load(nil, configPath)
	if err != nil {
		exitErr("load config", err)
	}
	if dirFlag != "" {
		cfg.Dir = dirFlag
	}
	cfg.DB = getDBPath(cfg)
	return cfg
}

func getDBPath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB)
}

// session is everything a chatting command needs, opened from config.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *store.SQLiteStore
	slots  store.SlotStore
	engine *dialog.Engine
}

func openSession(ctx context.Context) *session {
	cfg := loadConfig()
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		exitErr("init logger", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	s := &session{cfg: cfg, logger: logger, db: db, slots: db}
	if cfg.SlotBackend == config.BackendBadger {
		if s.slots, err = store.NewBadgerSlots(cfg.BadgerDir); err != nil {
			db.Close()
			exitErr("open slots", err)
		}
	}

	s.engine, err = dialog.New(source.NewDir(cfg.Dir, cfg.Password, logger), dialog.Config{
		Policy:      cfg.Policy,
		CacheSize:   cfg.CacheSize,
		SpamWindow:  cfg.SpamWindow,
		SpamCeiling: cfg.SpamCeiling,
		Locale:      cfg.Locale,
	}, dialog.Options{
		Slots:  s.slots,
		Events: db,
		Logger: logger,
	})
	if err != nil {
		s.Close()
		exitErr("create engine", err)
	}
	if err := s.engine.Reload(ctx); err != nil {
		logger.Warn("load templates", zap.Error(err))
	}

	events, err := db.ListEvents(ctx, store.ListEventsParams{Limit: memory.MemoriesLimit})
	if err != nil {
		logger.Warn("restore memories", zap.Error(err))
	}
	s.engine.Memory().Restore(events)
	return s
}

func (s *session) Close() {
	if b, ok := s.slots.(*store.BadgerSlots); ok {
		b.Close()
	}
	s.db.Close()
	config.Cleanup()
}

// printOut writes v in the selected format. text renders the text form; a
// nil text falls back to JSON.
func printOut(v any, text func() string) {
	switch formatFlag {
	case "yaml":
		b, err := toYAML(v)
		if err != nil {
			exitErr("encode yaml", err)
		}
		fmt.Print(string(b))
	case "text":
		if text != nil {
			fmt.Println(text())
			return
		}
		fallthrough
	default:
		b, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(b))
	}
}

// toYAML goes through JSON first so field names follow the json tags.
func toYAML(v any) ([]byte, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(j, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
