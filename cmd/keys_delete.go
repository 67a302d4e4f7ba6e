package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

func init() {
	KeysCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Delete a relationship key record",
	Long: `Removes the key record from the backend store entirely. Files encrypted
under the key become unrecoverable once no device has it cached. Deleting is
idempotent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys delete command")
		spinner, cleanup := startSpinner("Deleting key record...", verbose)
		defer cleanup()

		keyID := args[0]
		if err := workflows.Delete(cmd.Context(), keyID); err != nil {
			return Logger.ErrorfAndReturn("Failed to delete key: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Key record " + ui.Highlight.Sprint(keyID) + " deleted"
		return nil
	},
}
