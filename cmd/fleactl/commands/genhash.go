package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"flea/internal/security"
)

var hashScheme string

var genhashCmd = &cobra.Command{
	Use:   "genhash <password>",
	Short: "Print a password hash usable in the users table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := security.NewPasswordHasher(hashScheme).Hash(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	genhashCmd.Flags().StringVar(&hashScheme, "scheme", security.SchemeSHA256, "Hash scheme: sha256 or bcrypt")
	rootCmd.AddCommand(genhashCmd)
}
