package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"editron/internal/backend"
	"editron/pkg/logging"
)

// TokenValidity is the fixed validity window stamped on every issued token.
// The backend does not report expiry, so it is computed at issuance time.
const TokenValidity = 24 * time.Hour

// Store document keys. Servers and tokens live in two independent documents.
const (
	serversKey = "servers"
	tokensKey  = "tokens"
)

// Server identifies one configured backend identity endpoint.
// Servers are never deleted, only updated.
type Server struct {
	ID        string               `json:"id"`
	Profile   *backend.UserProfile `json:"profile,omitempty"`
	Available bool                 `json:"available"`
}

// AccessToken holds the issued token pair for one server.
// At most one exists per server ID; it is replaced whole, never partially.
type AccessToken struct {
	ServerID     string `json:"server_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    uint64 `json:"expires_at"`
}

// NewAccessToken builds a token record with expiry stamped at now + TokenValidity.
func NewAccessToken(serverID, accessToken, refreshToken string) AccessToken {
	return AccessToken{
		ServerID:     serverID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    uint64(time.Now().Add(TokenValidity).Unix()),
	}
}

// Registry is the process-wide view of known servers and their tokens.
// Every mutation is flushed to the backing stores immediately so the
// in-memory state and the persisted state stay eventually consistent.
//
// The mutex only guards the in-memory maps; store writes happen with the
// lock released, on a snapshot taken under the lock.
type Registry struct {
	mu      sync.Mutex
	servers []Server
	tokens  map[string]AccessToken

	serversStore Store
	tokensStore  Store
}

// NewRegistry creates a registry over the two persistence documents and
// loads any existing state. Missing documents are empty state; malformed
// ones are reported but leave the registry usable.
func NewRegistry(serversStore, tokensStore Store) (*Registry, error) {
	r := &Registry{
		tokens:       make(map[string]AccessToken),
		serversStore: serversStore,
		tokensStore:  tokensStore,
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) load() error {
	if raw, ok, err := r.serversStore.Get(serversKey); err != nil {
		return fmt.Errorf("failed to read servers document: %w", err)
	} else if ok {
		var servers []Server
		if err := json.Unmarshal(raw, &servers); err != nil {
			return fmt.Errorf("malformed servers document: %w", err)
		}
		r.servers = servers
		logging.Info("Session", "Loaded %d server(s) from storage", len(servers))
	} else {
		logging.Info("Session", "No servers found in storage - starting fresh")
	}

	if raw, ok, err := r.tokensStore.Get(tokensKey); err != nil {
		return fmt.Errorf("failed to read tokens document: %w", err)
	} else if ok {
		tokens := make(map[string]AccessToken)
		if err := json.Unmarshal(raw, &tokens); err != nil {
			return fmt.Errorf("malformed tokens document: %w", err)
		}
		r.tokens = tokens
		logging.Info("Session", "Loaded %d token(s) from storage", len(tokens))
	} else {
		logging.Info("Session", "No tokens found in storage - starting fresh")
	}

	return nil
}

// ServerByID returns the server with the given ID.
func (r *Registry) ServerByID(id string) (Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

// SaveServer inserts or updates a server and flushes the servers document.
func (r *Registry) SaveServer(server Server) error {
	r.mu.Lock()
	updated := false
	for i := range r.servers {
		if r.servers[i].ID == server.ID {
			r.servers[i] = server
			updated = true
			break
		}
	}
	if !updated {
		r.servers = append(r.servers, server)
	}
	snapshot := make([]Server, len(r.servers))
	copy(snapshot, r.servers)
	r.mu.Unlock()

	return r.flushServers(snapshot)
}

// Token returns the stored token for a server.
func (r *Registry) Token(serverID string) (AccessToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.tokens[serverID]
	return token, ok
}

// HasToken reports whether a token is stored for the server.
func (r *Registry) HasToken(serverID string) bool {
	_, ok := r.Token(serverID)
	return ok
}

// PutToken stores a token, replacing any prior token for the same server,
// and flushes the tokens document.
func (r *Registry) PutToken(token AccessToken) error {
	r.mu.Lock()
	r.tokens[token.ServerID] = token
	snapshot := r.tokenSnapshotLocked()
	r.mu.Unlock()

	logging.Info("Session", "Stored token for server=%s (expires_at=%d)", token.ServerID, token.ExpiresAt)
	return r.flushTokens(snapshot)
}

// RemoveToken deletes the token for a server and flushes the tokens
// document. Removing a token that does not exist is not an error.
func (r *Registry) RemoveToken(serverID string) error {
	r.mu.Lock()
	delete(r.tokens, serverID)
	snapshot := r.tokenSnapshotLocked()
	r.mu.Unlock()

	logging.Info("Session", "Removed token for server=%s", serverID)
	return r.flushTokens(snapshot)
}

func (r *Registry) tokenSnapshotLocked() map[string]AccessToken {
	snapshot := make(map[string]AccessToken, len(r.tokens))
	for id, token := range r.tokens {
		snapshot[id] = token
	}
	return snapshot
}

func (r *Registry) flushServers(servers []Server) error {
	raw, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("failed to marshal servers: %w", err)
	}
	if err := r.serversStore.Set(serversKey, raw); err != nil {
		return fmt.Errorf("failed to stage servers document: %w", err)
	}
	if err := r.serversStore.Save(); err != nil {
		logging.Error("Session", err, "Failed to persist servers")
		return err
	}
	return nil
}

func (r *Registry) flushTokens(tokens map[string]AccessToken) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	if err := r.tokensStore.Set(tokensKey, raw); err != nil {
		return fmt.Errorf("failed to stage tokens document: %w", err)
	}
	if err := r.tokensStore.Save(); err != nil {
		logging.Error("Session", err, "Failed to persist tokens")
		return err
	}
	return nil
}
