package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/recovery"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Recover this device's relationship key from the backend",
	Long: `Checks whether a relationship key is cached for this device's identity
and, if not, tries to fetch it from the backend record of an active
connection. Run automatically before encrypt and decrypt; available here
for explicit use after a reinstall.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting recover command")
		spinner, cleanup := startSpinner("Recovering key...", verbose)
		defer cleanup()

		result, err := workflows.Recover(cmd.Context(), "")
		if errors.Is(err, merrors.ErrIdentityNotConfigured) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No identity configured on this device\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock identity --set <id>") + " first"
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Recovery failed: %v", err)
		}

		switch result.Outcome.State {
		case recovery.StateCached:
			msg := ui.Success.Sprint("✓") + " Relationship key is cached and ready"
			if result.Outcome.KeyID != "" {
				msg += "\n" + ui.Muted.Sprint("recovered from record "+result.Outcome.KeyID)
			}
			spinner.FinalMSG = msg
		case recovery.StateRecovering:
			spinner.FinalMSG = ui.Info.Sprint("→") + " A recovery pass is already running"
		case recovery.StateGhost:
			spinner.FinalMSG = ui.Warning.Sprint("!") + " Your connection is active but the key could not be recovered\n" +
				ui.Info.Sprint("→") + " Re-scan your exchange code with " + ui.Code.Sprint("medlock scan")
		default:
			spinner.FinalMSG = ui.Muted.Sprint("no active connection to recover a key from") + "\n" +
				ui.Info.Sprint("→") + " Scan an exchange code with " + ui.Code.Sprint("medlock scan")
		}
		return nil
	},
}
