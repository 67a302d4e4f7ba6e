package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "medlock",
	Short: "Medlock - encrypted file exchange between clinicians and patients.",
	Long: `Medlock manages the encryption keys that protect medical files exchanged
between a clinician and a patient, so the storage backend never sees
plaintext.

Each relationship gets its own AES-256 key, distributed out of band as a
scannable QR code. Devices cache the key locally, encrypt and decrypt files
with it, and can recover a lost cache from the backend record while the
relationship stays active.

Usage:
  medlock <command> [flags]

Run 'medlock help <command>' for more details on a specific command.
`,
	Run: func(cmd *cobra.Command, args []string) {
		figure.NewFigure("medlock", "", true).Print()
		fmt.Println("\nRun 'medlock --help' to see available commands.")
	},
}

func main() {
	cmd.AddCommands(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
