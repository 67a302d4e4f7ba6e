package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	merrors "github.com/sable-health/medlock/internal/errors"
	"github.com/sable-health/medlock/internal/exchange"
	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var (
	rotateOutput string
	rotateQRSize int
)

func init() {
	rotateCmd.Flags().StringVarP(&rotateOutput, "output", "o", "", "write the new QR code as PNG to this path")
	rotateCmd.Flags().IntVar(&rotateQRSize, "size", 256, "PNG size in pixels")

	KeysCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate <key-id>",
	Short: "Rotate a relationship key and print the new exchange code",
	Long: `Creates a replacement key for the relationship and marks the old record
inactive. Files encrypted before rotation are not re-encrypted: they stay
readable only with the old key. Both parties must scan the new code before
they can exchange new files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys rotate command")
		spinner, cleanup := startSpinner("Rotating key...", verbose)
		defer cleanup()

		result, err := workflows.Rotate(cmd.Context(), args[0])
		if errors.Is(err, merrors.ErrKeyNotFound) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No key record with id " + ui.Highlight.Sprint(args[0])
			return nil
		}
		if errors.Is(err, merrors.ErrDuplicateActiveKey) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " A concurrent key operation raced this one\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock keys rotate "+args[0]) + " again"
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to rotate key: %v", err)
		}

		qr, err := exchange.TerminalString(result.EncodedPayload)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to render QR code: %v", err)
		}

		finalMessage := ui.Success.Sprint("✓") + " Key " + ui.Muted.Sprint(result.OldKeyID) +
			" rotated to " + ui.Highlight.Sprint(result.KeyPair.ID) + "\n" +
			ui.Warning.Sprint("!") + " Files encrypted before rotation need the old key\n" +
			"\n" + qr + "\n" +
			ui.Info.Sprint("→") + " Have both parties rescan with " + ui.Code.Sprint("medlock scan")

		if rotateOutput != "" {
			if err := exchange.WritePNG(result.EncodedPayload, rotateQRSize, rotateOutput); err != nil {
				return Logger.ErrorfAndReturn("Failed to write QR PNG: %v", err)
			}
			finalMessage += "\n" + ui.Success.Sprint("✓") + " QR code written to " + ui.Path.Sprint(rotateOutput)
		}

		spinner.FinalMSG = finalMessage
		return nil
	},
}
