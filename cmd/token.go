package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"editron/internal/orchestrator"
)

func newTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print the stored access token",
		Long: `Print the raw access token for the configured server, for use by
other tools. Nothing is printed when no token is stored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o, _, err := buildOrchestrator(false)
			if err != nil {
				return err
			}

			token, ok := o.AccessToken()
			if !ok {
				return orchestrator.ErrNotLoggedIn
			}

			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
}
