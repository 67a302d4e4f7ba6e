package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/report"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt <file>.mlock...",
	Short: "Decrypt files with the cached relationship key",
	Long: `Decrypts each .mlock file with the relationship key cached for this
device's identity, writing the plaintext alongside without the suffix.

A file that fails its integrity check is reported as exactly that: the key
may be outdated after a rotation, or the file corrupted in transit. That
failure is separate from ordinary read errors and never produces partial
plaintext.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt command")
		spinner, cleanup := startSpinner("Decrypting files...", verbose)
		defer cleanup()

		if done, err := ensureKeyAvailable(cmd, spinner); done || err != nil {
			return err
		}

		result, failure := workflows.Decrypt(cmd.Context(), workflows.DecryptOptions{Paths: args})
		if failure != nil {
			spinner.FinalMSG = formatFailure(failure)
			if result != nil && len(result.DecryptedFiles) > 0 {
				spinner.FinalMSG += "\n" + ui.Muted.Sprintf("%d file(s) decrypted before the failure", len(result.DecryptedFiles))
			}
			return nil
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Decrypted " +
			ui.Highlight.Sprintf("%d file(s)", len(result.DecryptedFiles)) + "\n" +
			ui.Path.Sprint(strings.Join(result.DecryptedFiles, "\n"))
		return nil
	},
}

// formatFailure renders a classified decryption failure the way the
// notification layer would: title, message, and the stable kind.
func formatFailure(f *report.Failure) string {
	return ui.Error.Sprint("✗ "+f.Title) + "\n" +
		f.Message + "\n" +
		ui.Muted.Sprint("kind: "+string(f.Kind))
}
