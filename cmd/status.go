package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"editron/internal/orchestrator"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a live session exists",
		Long: `Probe the backend with the stored token and report the session state.

Exit codes:
  0  logged in
  2  not logged in (no token, or the backend rejected it)
  1  the check could not be completed (backend unreachable or failing)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, _, err := buildOrchestrator(false)
			if err != nil {
				return err
			}

			loggedIn, err := o.CheckLogin(cmd.Context())
			if err != nil {
				return fmt.Errorf("session check inconclusive: %w", err)
			}

			if !loggedIn {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return orchestrator.ErrNotLoggedIn
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
}
