package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"flea/internal/infra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations and seed reference data",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openDatabase()
		if err != nil {
			return err
		}
		if err := infra.RunMigrations(cmd.Context(), db, cfg.DBDriver); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.DBDriver).Msg("database is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
