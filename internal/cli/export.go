package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/config"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export slots and memories as JSON",
		Long:  "Export every slot and stored memory event. The output can be fed back to import.",
		Run:   runExport,
	}

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	exp, err := s.ExportAll(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	// Slots live elsewhere with the badger backend.
	if cfg.SlotBackend == config.BackendBadger {
		slots := openSlots()
		defer slots.Close()
		if exp.Slots, err = slots.ListSlots(cmd.Context()); err != nil {
			exitErr("export", err)
		}
	}

	printOut(exp, nil)
}
