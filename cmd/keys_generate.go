package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var (
	generateClinician string
	generatePatient   string
	generateExpires   string
	generateOutput    string
	generateQRSize    int
)

func init() {
	generateCmd.Flags().StringVar(&generateClinician, "clinician", "", "clinician identifier (required)")
	generateCmd.Flags().StringVar(&generatePatient, "patient", "", "patient identifier (required)")
	generateCmd.Flags().StringVar(&generateExpires, "expires", "", "key expiry date (YYYY-MM-DD)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write the QR code as PNG to this path")
	generateCmd.Flags().IntVar(&generateQRSize, "size", 256, "PNG size in pixels")
	_ = generateCmd.MarkFlagRequired("clinician")
	_ = generateCmd.MarkFlagRequired("patient")

	KeysCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new relationship key and print its exchange code",
	Long: `Generates a fresh AES-256 data-encryption key for a clinician/patient pair
and prints the exchange code both parties scan to import it.

If the pair already has an active key, it is superseded: the old record
becomes inactive and files encrypted under it stay readable only with the
old key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys generate command")
		spinner, cleanup := startSpinner("Generating relationship key...", verbose)
		defer cleanup()

		var expiresAt *time.Time
		if generateExpires != "" {
			t, err := time.Parse("2006-01-02", generateExpires)
			if err != nil {
				spinner.FinalMSG = ui.Error.Sprint("✗") + " Invalid --expires date; use YYYY-MM-DD"
				return nil
			}
			// Expire at end of day, UTC.
			t = t.Add(24*time.Hour - time.Second).UTC()
			expiresAt = &t
		}

		result, err := workflows.Generate(cmd.Context(), workflows.GenerateOptions{
			ClinicianID: generateClinician,
			PatientID:   generatePatient,
			ExpiresAt:   expiresAt,
		})
		if errors.Is(err, merrors.ErrDuplicateActiveKey) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " A concurrent key operation raced this one\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock keys generate") + " again"
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to generate key: %v", err)
		}

		qr, err := exchange.TerminalString(result.EncodedPayload)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to render QR code: %v", err)
		}

		finalMessage := ui.Success.Sprint("✓") + " Key " + ui.Highlight.Sprint(result.KeyPair.ID) +
			" created for " + ui.Highlight.Sprint(result.KeyPair.ClinicianID) + " / " +
			ui.Highlight.Sprint(result.KeyPair.PatientID) + "\n"
		if result.Superseded != "" {
			finalMessage += ui.Warning.Sprint("!") + " Superseded previous key " +
				ui.Muted.Sprint(result.Superseded) + "\n"
		}
		finalMessage += "\n" + qr + "\n" +
			ui.Info.Sprint("→") + " Have both parties scan this code with " + ui.Code.Sprint("medlock scan") + "\n" +
			ui.Warning.Sprint("!") + " Treat the code as the key itself: anyone who captures it can decrypt"

		if generateOutput != "" {
			if err := exchange.WritePNG(result.EncodedPayload, generateQRSize, generateOutput); err != nil {
				return Logger.ErrorfAndReturn("Failed to write QR PNG: %v", err)
			}
			finalMessage += "\n" + ui.Success.Sprint("✓") + " QR code written to " + ui.Path.Sprint(generateOutput)
		}

		spinner.FinalMSG = finalMessage
		return nil
	},
}

// expiryString formats an optional expiry for display.
func expiryString(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format("2006-01-02")
}
