package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"editron/internal/backend"
	"editron/internal/oauth"
	"editron/internal/orchestrator"
	"editron/pkg/logging"
)

// Exit codes for CLI commands.
// These follow common conventions so scripts can branch on the outcome.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
)

var (
	logLevelFlag string
	logFileFlag  string
)

// rootCmd represents the base command for the editron login core.
var rootCmd = &cobra.Command{
	Use:   "editron",
	Short: "Editron login core",
	Long: `editron manages the browser-based login session for the Editron
desktop client: it drives the OAuth flow against the configured backend,
persists the resulting tokens, and answers session queries.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.ParseLevel(logLevelFlag)
		if logFileFlag != "" {
			logging.InitWithFile(level, os.Stderr, logFileFlag)
			return
		}
		logging.Init(level, os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// Called from the main package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "editron version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps errors to semantic exit codes for scripting.
func getExitCode(err error) int {
	if errors.Is(err, orchestrator.ErrNotLoggedIn) || errors.Is(err, backend.ErrUnauthorized) {
		return ExitCodeAuthRequired
	}

	var redirectErr *oauth.RedirectError
	if errors.Is(err, oauth.ErrTimeout) ||
		errors.Is(err, oauth.ErrNoPortAvailable) ||
		errors.Is(err, orchestrator.ErrNoActiveSession) ||
		errors.As(err, &redirectErr) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Write logs to this file with rotation instead of stderr")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newVersionCmd())
}
