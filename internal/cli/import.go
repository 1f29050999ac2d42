package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/config"
	"github.com/rcliao/pawscribe/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import slots and memories from JSON",
		Long:  "Import slots and memories from JSON (stdin or --file). Expects the format produced by export.",
		Run:   runImport,
	}

	cmd.Flags().String("file", "", "Read from this file instead of stdin")

	RootCmd.AddCommand(cmd)
}

func runImport(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")

	var data []byte
	var err error
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		exitErr("read input", err)
	}

	var exp model.Export
	if err := json.Unmarshal(data, &exp); err != nil {
		exitErr("parse json", err)
	}

	cfg := loadConfig()
	s, err := openStore(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	imported := 0
	if cfg.SlotBackend == config.BackendBadger {
		slots := openSlots()
		defer slots.Close()
		for _, sl := range exp.Slots {
			if err := slots.SetSlot(cmd.Context(), sl.Name, sl.Value); err != nil {
				exitErr("import", err)
			}
			imported++
		}
		exp.Slots = nil
	}

	n, err := s.Import(cmd.Context(), &exp)
	if err != nil {
		exitErr("import", err)
	}
	imported += n

	fmt.Printf(`{"ok":true,"imported":%d}`+"\n", imported)
}
