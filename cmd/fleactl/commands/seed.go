package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flea/internal/repository"
	"flea/internal/security"
	"flea/internal/service"
)

var (
	seedUsername string
	seedPassword string
	seedEmail    string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create an administrator or promote an existing user",
	Example: `  fleactl seed-admin --username root --password 's3cret' --email root@example.com
  fleactl seed-admin --username ana`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		store := repository.NewStore(db)
		hasher := security.NewPasswordHasher(cfg.PasswordScheme)

		created, err := service.SeedAdmin(cmd.Context(), store, hasher, seedUsername, seedPassword, seedEmail)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("username", seedUsername).Msg("administrator created")
		} else {
			log.Info().Str("username", seedUsername).Msg("existing user promoted to Admin")
		}
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().StringVar(&seedUsername, "username", "", "Username to create or promote")
	seedAdminCmd.Flags().StringVar(&seedPassword, "password", "", "Password for a new user")
	seedAdminCmd.Flags().StringVar(&seedEmail, "email", "", "Email for a new user")
	_ = seedAdminCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(seedAdminCmd)
}
