package cmd

import (
	"errors"
	"strings"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/recovery"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt <file>...",
	Short: "Encrypt files with the cached relationship key",
	Long: `Encrypts each file with the relationship key cached for this device's
identity, writing <file>.mlock alongside the original. If no key is cached,
a silent recovery pass runs first; if that also fails, the exchange code
must be re-scanned.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		spinner, cleanup := startSpinner("Encrypting files...", verbose)
		defer cleanup()

		if done, err := ensureKeyAvailable(cmd, spinner); done || err != nil {
			return err
		}

		result, err := workflows.Encrypt(cmd.Context(), workflows.EncryptOptions{Paths: args})
		if errors.Is(err, merrors.ErrNoCachedKey) {
			spinner.FinalMSG = rescanHint()
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to encrypt: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Encrypted " +
			ui.Highlight.Sprintf("%d file(s)", len(result.EncryptedFiles)) + "\n" +
			ui.Path.Sprint(strings.Join(result.EncryptedFiles, "\n"))
		return nil
	},
}

func rescanHint() string {
	return ui.Error.Sprint("✗") + " No relationship key on this device\n" +
		ui.Info.Sprint("→") + " Scan your exchange code with " + ui.Code.Sprint("medlock scan")
}

// ensureKeyAvailable runs a silent recovery pass when the cache is empty.
// Returns done=true when the command should stop (final message already set).
func ensureKeyAvailable(cmd *cobra.Command, s *spinner.Spinner) (bool, error) {
	has, err := workflows.HasCachedKey("")
	if errors.Is(err, merrors.ErrIdentityNotConfigured) {
		s.FinalMSG = ui.Error.Sprint("✗") + " No identity configured on this device\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock identity --set <id>") + " first"
		return true, nil
	}
	if err != nil {
		return false, Logger.ErrorfAndReturn("Failed to check key cache: %v", err)
	}
	if has {
		return false, nil
	}

	Logger.Infof("No cached key, attempting silent recovery")
	result, err := workflows.Recover(cmd.Context(), "")
	if err != nil {
		Logger.Warnf("Recovery pass failed: %v", err)
		s.FinalMSG = rescanHint()
		return true, nil
	}
	if result.Outcome.State != recovery.StateCached {
		s.FinalMSG = rescanHint()
		return true, nil
	}
	Logger.Infof("Key recovered from backend record %s", result.Outcome.KeyID)
	return false, nil
}
