package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/partyline-dev/partyline/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "partyline",
	Short: "Partyline - database and user administration",
	Long: `Partyline CLI - administer the Partyline database from a terminal.

Reads the same environment (.env, .env.local, CLOUDFLARE_*, WRANGLER_*) as the
server, so commands run against the local wrangler SQLite file in development
and against the remote D1 database when CLOUDFLARE_D1_TOKEN is set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "partyline version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewDBCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())
	rootCmd.AddCommand(commands.NewUserCmd())
	rootCmd.AddCommand(commands.NewSessionsCmd())
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
