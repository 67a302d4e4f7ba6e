package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/ui"
	"github.com/sable-health/medlock/internal/workflows"
)

var (
	listClinician string
	listPatient   string
	listAll       bool
)

func init() {
	listCmd.Flags().StringVar(&listClinician, "clinician", "", "filter by clinician identifier")
	listCmd.Flags().StringVar(&listPatient, "patient", "", "filter by patient identifier")
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include inactive and revoked keys")

	KeysCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List relationship key records",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys list command")
		spinner, cleanup := startSpinner("Loading key records...", verbose)
		defer cleanup()

		result, err := workflows.List(cmd.Context(), workflows.ListOptions{
			ClinicianID: listClinician,
			PatientID:   listPatient,
			All:         listAll,
		})
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to list keys: %v", err)
		}

		if len(result.Records) == 0 {
			spinner.FinalMSG = ui.Muted.Sprint("no matching key records") + "\n" +
				ui.Info.Sprint("→") + " Create one with " + ui.Code.Sprint("medlock keys generate")
			return nil
		}

		finalMessage := ""
		for _, kp := range result.Records {
			stateFmt := ui.Success
			switch kp.State {
			case "revoked":
				stateFmt = ui.Error
			case "inactive":
				stateFmt = ui.Muted
			}
			finalMessage += fmt.Sprintf("%s  %s / %s  %s  created %s  expires %s\n",
				ui.Highlight.Sprint(kp.ID),
				kp.ClinicianID, kp.PatientID,
				stateFmt.Sprint(string(kp.State)),
				kp.CreatedAt.Format("2006-01-02"),
				expiryString(kp.ExpiresAt))
		}
		finalMessage += ui.Muted.Sprintf("%d of %d records", len(result.Records), result.TotalBeforeFilter)

		spinner.FinalMSG = finalMessage
		return nil
	},
}
