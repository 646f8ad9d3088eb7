package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"flea/internal/config"
	"flea/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	// Global flags, overriding the environment.
	dbDriver string
	dbURL    string
)

var rootCmd = &cobra.Command{
	Use:   "fleactl",
	Short: "Operator tasks for the Flea marketplace",
	Long: `fleactl runs maintenance tasks against a Flea database: applying
migrations, seeding an administrator and hashing passwords.

Connection settings come from the same environment variables (or .env file)
as the server; --driver and --db override them.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: postgres or sqlite (default DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (default DATABASE_URL)")
}

// openDatabase loads config and applies flag overrides.
func openDatabase() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if dbDriver != "" {
		cfg.DBDriver = dbDriver
	}
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	return cfg, db, nil
}
