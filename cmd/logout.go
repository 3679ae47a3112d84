package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Long: `Remove the stored access token and clear the cached profile.

Logging out when no session exists is not an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, _, err := buildOrchestrator(false)
			if err != nil {
				return err
			}

			if err := o.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
