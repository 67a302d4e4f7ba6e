package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

func init() {
	KeysCmd.AddCommand(revokeCmd)
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke a relationship key",
	Long: `Marks the key record as revoked so it can no longer be exchanged or
recovered. Revoking is idempotent and does not touch keys already cached on
devices; those keep working until each device logs out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys revoke command")
		spinner, cleanup := startSpinner("Revoking key...", verbose)
		defer cleanup()

		keyID := args[0]
		if err := workflows.Revoke(cmd.Context(), keyID); err != nil {
			return Logger.ErrorfAndReturn("Failed to revoke key: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Key " + ui.Highlight.Sprint(keyID) + " revoked\n" +
			ui.Muted.Sprint("devices with the key cached keep access until they log out")
		return nil
	},
}
