package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var profileJSON bool

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the authenticated user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			o, _, err := buildOrchestrator(false)
			if err != nil {
				return err
			}

			profile, err := o.GetProfile(cmd.Context())
			if err != nil {
				return err
			}

			if profileJSON {
				out, err := json.MarshalIndent(profile, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Name:     %s\n", profile.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "Email:    %s\n", profile.Email)
			fmt.Fprintf(cmd.OutOrStdout(), "Provider: %s\n", profile.AuthProvider)
			return nil
		},
	}

	cmd.Flags().BoolVar(&profileJSON, "json", false, "Output the profile as JSON")
	return cmd
}
