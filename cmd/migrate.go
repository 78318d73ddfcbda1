package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyhall/studyhall/db"
	"github.com/studyhall/studyhall/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply all pending schema migrations to the configured PostgreSQL
database. The serve command runs migrations automatically at startup;
this command exists for running them separately, e.g. in deploy pipelines.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
