package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"editron/internal/orchestrator"
)

var (
	loginDeepLink  bool
	loginNoBrowser bool
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the backend via the browser",
		Long: `Start a browser-based login against the configured backend.

By default a loopback listener catches the OAuth redirect. With --deep-link
the redirect is expected as an editron-app:// URI instead; paste the URI the
browser hands back on standard input to complete the flow.

Examples:
  editron login                # loopback listener flow
  editron login --deep-link    # deep-link flow, URI read from stdin
  editron login --no-browser   # print the authorization URL instead of opening it`,
		RunE: runLogin,
	}

	cmd.Flags().BoolVar(&loginDeepLink, "deep-link", false, "Use the deep-link callback transport instead of the loopback listener")
	cmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Print the authorization URL instead of launching the browser")
	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	var opts []orchestrator.Option
	if loginNoBrowser {
		opts = append(opts, orchestrator.WithBrowserOpener(func(url string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser:\n\n  %s\n\n", url)
			return nil
		}))
	}

	o, deepLink, err := buildOrchestrator(loginDeepLink, opts...)
	if err != nil {
		return err
	}

	if deepLink != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Waiting for the editron-app:// callback URI on stdin...")
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				deepLink.Deliver(scanner.Text())
			}
		}()
	}

	if err := o.Login(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Login successful.")
	return nil
}
