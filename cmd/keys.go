package cmd

import (
	"github.com/spf13/cobra"
)

// KeysCmd is the administrative surface: key records live in the backend
// store and are managed by operators, not by patient or clinician devices.
var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage relationship encryption keys",
	Long: `Provides generation, listing, rotation, revocation, and deletion of the
data-encryption keys that protect files exchanged between a clinician and a
patient. Generating or rotating a key prints a QR exchange code for the
parties to scan.`,
}
