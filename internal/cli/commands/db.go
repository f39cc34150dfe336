package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/partyline-dev/partyline/internal/config"
	"github.com/partyline-dev/partyline/internal/database"
)

// NewDBCmd creates the db command group
func NewDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and migrate the database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the resolved database location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			return printDatabasePath(cmd.OutOrStdout(), cfg.Database)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the user, session, account and config tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database, log)
			if err != nil {
				return err
			}
			defer database.Close(db)

			if err := database.Migrate(db); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Migrated %s database\n", cfg.Database.Mode)
			return nil
		},
	})

	return cmd
}

func printDatabasePath(out io.Writer, db config.DatabaseConfig) error {
	switch db.Mode {
	case config.ModeLocal:
		fmt.Fprintln(out, db.URL)
	case config.ModeRemote:
		fmt.Fprintf(out, "d1://%s/%s\n", db.AccountID, db.DatabaseID)
	default:
		return fmt.Errorf("unknown database mode %q", db.Mode)
	}
	return nil
}
