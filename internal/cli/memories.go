package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memories [query]",
		Short: "List or search remembered events",
		Long:  "List remembered events, newest first. With a query, search predicates, objects and raw text instead.",
		Run:   runMemories,
	}

	cmd.Flags().String("type", "", "Filter by type: event, fact or state")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runMemories(cmd *cobra.Command, args []string) {
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	if typ != "" && !model.ValidEntryTypes[typ] {
		exitErr("memories", fmt.Errorf("invalid type %q", typ))
	}

	s, err := openStore(loadConfig())
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	var entries []model.MemoryEntry
	if strings.TrimSpace(query) != "" {
		entries, err = s.SearchEvents(cmd.Context(), store.SearchParams{Query: query, Type: typ, Limit: limit})
	} else {
		entries, err = s.ListEvents(cmd.Context(), store.ListEventsParams{Type: typ, Limit: limit})
	}
	if err != nil {
		exitErr("memories", err)
	}

	if len(entries) == 0 {
		entries = []model.MemoryEntry{}
	}
	printOut(entries, func() string {
		var b strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&b, "%s  %-5s  %s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Type, e.RawText)
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
