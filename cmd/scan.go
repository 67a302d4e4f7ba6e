package cmd

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var scanFile string

func init() {
	scanCmd.Flags().StringVarP(&scanFile, "file", "f", "", "read the scanned payload from a file instead of stdin")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Import a scanned key exchange code",
	Long: `Reads the decoded text of a scanned exchange QR code (from stdin or
--file), validates that it was issued for this device's identity, and caches
the relationship key locally.

A payload issued for someone else is rejected; so is one that has expired or
cannot be parsed. All three cases mean the code must be re-issued or
re-scanned, and none of them modifies the device.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting scan command")
		spinner, cleanup := startSpinner("Importing exchange code...", verbose)
		defer cleanup()

		raw, err := readScanInput(cmd.InOrStdin())
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read payload: %v", err)
		}

		result, err := workflows.Scan(cmd.Context(), workflows.ScanOptions{Raw: raw})
		switch {
		case errors.Is(err, merrors.ErrIdentityNotConfigured):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No identity configured on this device\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock identity --set <id>") + " first"
			return nil
		case errors.Is(err, merrors.ErrMalformedPayload):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " The scanned code is not a valid exchange payload\n" +
				ui.Info.Sprint("→") + " Re-scan the code and try again"
			return nil
		case errors.Is(err, merrors.ErrIdentityMismatch):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " This code was issued for a different person\n" +
				ui.Info.Sprint("→") + " Ask for a code issued to your identifier"
			return nil
		case errors.Is(err, merrors.ErrPayloadExpired):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " This code has expired\n" +
				ui.Info.Sprint("→") + " Ask for a freshly generated code"
			return nil
		case err != nil:
			return Logger.ErrorfAndReturn("Failed to import exchange code: %v", err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Connected to " + ui.Highlight.Sprint(result.CounterpartID) + "\n" +
			ui.Info.Sprint("→") + " You can now run " + ui.Code.Sprint("medlock encrypt") + " and " + ui.Code.Sprint("medlock decrypt")
		return nil
	},
}

func readScanInput(stdin io.Reader) (string, error) {
	if scanFile != "" {
		data, err := os.ReadFile(scanFile)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
