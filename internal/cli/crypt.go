package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/pawscribe/internal/source"
)

func init() {
	encrypt := &cobra.Command{
		Use:   "encrypt [file]",
		Short: "Encrypt a template file",
		Long:  "Encrypt a template file with the configured password. Encrypted files are read transparently by chat.",
		Args:  cobra.ExactArgs(1),
		Run:   runEncrypt,
	}
	decrypt := &cobra.Command{
		Use:   "decrypt [file]",
		Short: "Decrypt a template file",
		Args:  cobra.ExactArgs(1),
		Run:   runDecrypt,
	}

	for _, cmd := range []*cobra.Command{encrypt, decrypt} {
		cmd.Flags().StringP("password", "p", "", "Password (default: $PAWSCRIBE_PASSWORD)")
		cmd.Flags().StringP("out", "o", "", "Write here instead of stdout")
		RootCmd.AddCommand(cmd)
	}
}

func runEncrypt(cmd *cobra.Command, args []string) {
	text, password, out := readCryptArgs(cmd, args[0])
	if source.IsEncrypted(text) {
		exitErr("encrypt", fmt.Errorf("%s is already encrypted", args[0]))
	}
	sealed, err := source.Encrypt(text, password)
	if err != nil {
		exitErr("encrypt", err)
	}
	writeCryptOutput(out, sealed+"\n")
}

func runDecrypt(cmd *cobra.Command, args []string) {
	text, password, out := readCryptArgs(cmd, args[0])
	plain, err := source.Decrypt(strings.TrimSpace(text), password)
	if err != nil {
		exitErr("decrypt", err)
	}
	writeCryptOutput(out, plain)
}

func readCryptArgs(cmd *cobra.Command, path string) (text, password, out string) {
	password, _ = cmd.Flags().GetString("password")
	out, _ = cmd.Flags().GetString("out")
	if password == "" {
		password = loadConfig().Password
	}
	if password == "" {
		exitErr(cmd.Name(), fmt.Errorf("password is required (--password or PAWSCRIBE_PASSWORD)"))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		exitErr("read file", err)
	}
	return string(b), password, out
}

func writeCryptOutput(path, data string) {
	if path == "" {
		fmt.Print(data)
		return
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		exitErr("write file", err)
	}
}
