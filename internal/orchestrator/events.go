package orchestrator

import (
	"editron/pkg/logging"
)

// Event names broadcast to the UI collaborator. Failures are reported through
// these events in addition to the operation's own return value.
const (
	EventLoginSuccess  = "login_success"
	EventLoginFailed   = "login_failed"
	EventLogoutSuccess = "logout_success"
)

// EventSink receives named events emitted by the orchestrator. Implementations
// must not block; emission happens on the operation's own goroutine.
type EventSink interface {
	Emit(event string, payload any)
}

// LogSink is the default sink: it records events in the structured log.
type LogSink struct{}

// Emit implements EventSink.
func (LogSink) Emit(event string, payload any) {
	logging.Info("Events", "Event emitted: %s payload=%v", event, payload)
}
