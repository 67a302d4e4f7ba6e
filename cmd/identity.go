package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sable-health/medlock/internal/configs"
	"github.com/sable-health/medlock/internal/ui"
)

var (
	identitySetID   string
	identitySetName string
	identitySetRole string
)

func init() {
	identityCmd.Flags().StringVar(&identitySetID, "set", "", "set the user identifier for this device")
	identityCmd.Flags().StringVar(&identitySetName, "name", "", "display name (with --set)")
	identityCmd.Flags().StringVar(&identitySetRole, "role", "", "role: clinician, patient, or admin (with --set)")
}

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show or set the user identity for this device",
	Long: `Without flags, shows the configured identity. With --set, writes it.

The identity is which person this device acts as; exchange codes are only
accepted when they name this identifier, and the key cache is scoped to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting identity command")

		if identitySetID != "" {
			config := &configs.IdentityConfig{}
			config.User.ID = identitySetID
			config.User.Name = identitySetName
			config.User.Role = configs.Role(identitySetRole)
			if err := configs.SaveIdentity(config); err != nil {
				return Logger.ErrorfAndReturn("Failed to save identity: %v", err)
			}
			cmd.Println(ui.Success.Sprint("✓") + " Identity set to " + ui.Highlight.Sprint(identitySetID))
			return nil
		}

		config, err := configs.LoadIdentity()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load identity: %v", err)
		}
		if config.User.ID == "" {
			cmd.Println(ui.Muted.Sprint("no identity configured") + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("medlock identity --set <id> --role patient"))
			return nil
		}

		cmd.Println("User:  " + ui.Highlight.Sprint(config.User.ID))
		if config.User.Name != "" {
			cmd.Println("Name:  " + config.User.Name)
		}
		if config.User.Role != "" {
			cmd.Println("Role:  " + string(config.User.Role))
		}
		return nil
	},
}
