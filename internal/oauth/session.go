package oauth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"editron/pkg/logging"
)

// Attempt is the transient state of one in-flight login attempt: its
// correlation material plus the redirect target embedded in the
// authorization URL.
type Attempt struct {
	ID          string
	Material    *Material
	RedirectURI string
	StartedAt   time.Time
}

// Slot holds the single active login attempt. At most one attempt is active
// at a time; beginning a new one supersedes whatever was there. Take is an
// atomic take-and-clear so the material is consumed exactly once even when
// callbacks are delivered concurrently.
type Slot struct {
	mu     sync.Mutex
	active *Attempt
}

// Begin installs a new active attempt, superseding any prior one.
func (s *Slot) Begin(material *Material, redirectURI string) *Attempt {
	attempt := &Attempt{
		ID:          uuid.NewString(),
		Material:    material,
		RedirectURI: redirectURI,
		StartedAt:   time.Now(),
	}

	s.mu.Lock()
	superseded := s.active
	s.active = attempt
	s.mu.Unlock()

	if superseded != nil {
		logging.Debug("OAuth", "Superseded in-flight login attempt %s", superseded.ID)
	}

	return attempt
}

// Take removes and returns the active attempt. The second of two concurrent
// callers gets ok=false.
func (s *Slot) Take() (*Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt := s.active
	s.active = nil
	return attempt, attempt != nil
}

// Clear drops the active attempt, if any.
func (s *Slot) Clear() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// Active reports whether an attempt is in flight.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}
