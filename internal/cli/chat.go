package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/pawscribe/internal/dialog"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long:  "Read lines from stdin and answer each one. Type /reload, /stats or /clear for commands, exit to quit.",
		Run:   runChat,
	}

	cmd.Flags().Bool("watch", false, "Reload templates when files in the folder change")

	RootCmd.AddCommand(cmd)

	ask := &cobra.Command{
		Use:   "ask [text]",
		Short: "Answer a single message",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAsk,
	}

	RootCmd.AddCommand(ask)
}

func runChat(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	s := openSession(ctx)
	defer s.Close()

	watch, _ := cmd.Flags().GetBool("watch")
	if watch || s.cfg.Watch {
		w, err := s.engine.Watch(ctx, s.cfg.WatchDebounce)
		if err != nil {
			exitErr("watch", err)
		}
		defer w.Stop()
	}

	// Chat is for people; only an explicit --format switches to records.
	text := !cmd.Flags().Changed("format") || formatFlag == "text"
	speaker := s.engine.Persona().MascotName
	if text {
		fmt.Printf("%s: %s\n", speaker, greeting(s.engine))
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if text {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			break
		}
		r := s.engine.Respond(ctx, line)
		if r.Empty() {
			continue
		}
		s.logger.Debug("reply", zap.String("source", string(r.Source)), zap.String("context", r.Context))
		if text {
			if p := s.engine.Persona().MascotName; p != "" {
				speaker = p
			}
			fmt.Printf("%s: %s\n", speaker, r.Text)
			continue
		}
		printOut(r, nil)
	}
	if err := scanner.Err(); err != nil {
		exitErr("read stdin", err)
	}
}

func greeting(e *dialog.Engine) string {
	st := e.Stats()
	return fmt.Sprintf("ready (%s, %d templates, %d keywords)", st.Context, st.Templates, st.Keywords)
}

func runAsk(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	s := openSession(ctx)
	defer s.Close()

	r := s.engine.Respond(ctx, strings.Join(args, " "))
	printOut(r, func() string { return r.Text })
}
