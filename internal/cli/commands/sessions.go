package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSessionsCmd creates the sessions command group
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions now",
		Long: `Delete expired sessions now.

The worker does this on SESSION_CLEANUP_SCHEDULE; use this when no worker runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer e.close()

			return runSessionsPurge(cmd.Context(), e)
		},
	})

	return cmd
}

func runSessionsPurge(ctx context.Context, e *env) error {
	n, err := e.auth.PurgeExpiredSessions(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "✓ Deleted %d expired session(s)\n", n)
	return nil
}
