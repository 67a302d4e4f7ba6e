package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the cached relationship key for this device's user",
	Long: `Removes the locally cached relationship key. The backend record is
untouched: as long as the connection stays active, the key comes back via
recovery or a fresh scan on next use.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting logout command")
		spinner, cleanup := startSpinner("Clearing cached key...", verbose)
		defer cleanup()

		identity, err := workflows.Logout(cmd.Context())
		if errors.Is(err, merrors.ErrIdentityNotConfigured) {
			spinner.FinalMSG = ui.Muted.Sprint("no identity configured, nothing to clear")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to clear cached key: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Cached key cleared for " + ui.Highlight.Sprint(identity)
		return nil
	},
}
