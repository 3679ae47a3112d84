package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"editron/internal/backend"
	"editron/internal/oauth"
	"editron/internal/orchestrator"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not logged in", orchestrator.ErrNotLoggedIn, ExitCodeAuthRequired},
		{"unauthorized", backend.ErrUnauthorized, ExitCodeAuthRequired},
		{"wrapped unauthorized", fmt.Errorf("probe: %w", backend.ErrUnauthorized), ExitCodeAuthRequired},
		{"callback timeout", oauth.ErrTimeout, ExitCodeAuthFailed},
		{"no port available", oauth.ErrNoPortAvailable, ExitCodeAuthFailed},
		{"no active session", orchestrator.ErrNoActiveSession, ExitCodeAuthFailed},
		{"provider redirect error", &oauth.RedirectError{Reason: "access_denied"}, ExitCodeAuthFailed},
		{"generic error", errors.New("boom"), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestRootCommandRegistration(t *testing.T) {
	expected := []string{"login", "logout", "status", "profile", "token", "version"}
	for _, name := range expected {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "command %q not registered", name)
	}
}
