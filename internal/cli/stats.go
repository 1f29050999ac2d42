package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/corpus"
	"github.com/rcliao/pawscribe/internal/dialog"
	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show template and database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)

	contexts := &cobra.Command{
		Use:   "contexts",
		Short: "List the context routes declared in base.txt",
		Run:   runContexts,
	}

	RootCmd.AddCommand(contexts)

	suggest := &cobra.Command{
		Use:   "suggest [prefix]",
		Short: "Suggest template triggers resembling the input",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSuggest,
	}

	suggest.Flags().IntP("limit", "l", 10, "Max suggestions")

	RootCmd.AddCommand(suggest)
}

type statsOutput struct {
	Templates dialog.Stats `json:"templates"`
	Store     *store.Stats `json:"store"`
}

func runStats(cmd *cobra.Command, args []string) {
	s := openSession(cmd.Context())
	defer s.Close()

	dbStats, err := s.db.Stats(cmd.Context(), s.cfg.DB)
	if err != nil {
		exitErr("stats", err)
	}

	out := statsOutput{Templates: s.engine.Stats(), Store: dbStats}
	printOut(out, func() string {
		t := out.Templates
		return fmt.Sprintf("context: %s (locked: %t)\ntemplates: %d\nkeywords: %d\nshared files: %d\nslots: %d\nevents: %d",
			t.Context, t.Locked, t.Templates, t.Keywords, t.SharedFiles, dbStats.Slots, dbStats.Events)
	})
}

type contextsOutput struct {
	Persona model.Persona `json:"persona"`
	Routes  []corpus.Hint `json:"routes"`
}

func runContexts(cmd *cobra.Command, args []string) {
	s := openSession(cmd.Context())
	defer s.Close()

	out := contextsOutput{Persona: s.engine.Persona(), Routes: s.engine.Hints()}
	printOut(out, func() string {
		var b strings.Builder
		for _, h := range out.Routes {
			fmt.Fprintf(&b, "%s -> %s\n", h.Key, h.Context)
		}
		return strings.TrimRight(b.String(), "\n")
	})
}

func runSuggest(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s := openSession(cmd.Context())
	defer s.Close()

	suggestions := s.engine.Suggest(strings.Join(args, " "), limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	printOut(suggestions, func() string { return strings.Join(suggestions, "\n") })
}
