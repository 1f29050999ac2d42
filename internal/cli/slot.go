package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/config"
	"github.com/rcliao/pawscribe/internal/model"
	"github.com/rcliao/pawscribe/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Inspect and edit remembered slots",
	}

	get := &cobra.Command{
		Use:   "get [name]",
		Short: "Print a slot value",
		Args:  cobra.ExactArgs(1),
		Run:   runSlotGet,
	}
	set := &cobra.Command{
		Use:   "set [name] [value]",
		Short: "Store a slot value",
		Args:  cobra.MinimumNArgs(2),
		Run:   runSlotSet,
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List all slots",
		Run:   runSlotList,
	}
	list.Flags().Bool("names-only", false, "Only output slot names")
	rm := &cobra.Command{
		Use:   "rm [name]",
		Short: "Delete a slot",
		Args:  cobra.ExactArgs(1),
		Run:   runSlotRm,
	}

	cmd.AddCommand(get, set, list, rm)
	RootCmd.AddCommand(cmd)
}

// openSlots opens the configured slot backend. The caller closes it.
func openSlots() store.SlotStore {
	cfg := loadConfig()
	if cfg.SlotBackend == config.BackendBadger {
		b, err := store.NewBadgerSlots(cfg.BadgerDir)
		if err != nil {
			exitErr("open slots", err)
		}
		return b
	}
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func runSlotGet(cmd *cobra.Command, args []string) {
	s := openSlots()
	defer s.Close()

	value, ok, err := s.GetSlot(cmd.Context(), args[0])
	if err != nil {
		exitErr("get slot", err)
	}
	if !ok {
		exitErr("get slot", fmt.Errorf("%s: %w", args[0], store.ErrSlotNotFound))
	}
	printOut(map[string]string{"name": args[0], "value": value}, func() string { return value })
}

func runSlotSet(cmd *cobra.Command, args []string) {
	name := args[0]
	value := strings.TrimSpace(strings.Join(args[1:], " "))
	if value == "" {
		exitErr("set slot", fmt.Errorf("value is required"))
	}

	s := openSlots()
	defer s.Close()

	if err := s.SetSlot(cmd.Context(), name, value); err != nil {
		exitErr("set slot", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"name":%q}`+"\n", name)
}

func runSlotList(cmd *cobra.Command, args []string) {
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	s := openSlots()
	defer s.Close()

	slots, err := s.ListSlots(cmd.Context())
	if err != nil {
		exitErr("list slots", err)
	}

	if namesOnly {
		for _, sl := range slots {
			fmt.Println(sl.Name)
		}
		return
	}
	if slots == nil {
		slots = []model.Slot{}
	}
	printOut(slots, func() string {
		var b strings.Builder
		for _, sl := range slots {
			fmt.Fprintf(&b, "%s = %s (v%d)\n", sl.Name, sl.Value, sl.Version)
		}
		return strings.TrimRight(b.String(), "\n")
	})
}

func runSlotRm(cmd *cobra.Command, args []string) {
	s := openSlots()
	defer s.Close()

	if err := s.RmSlot(cmd.Context(), args[0]); err != nil {
		exitErr("rm slot", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"name":%q}`+"\n", args[0])
}
