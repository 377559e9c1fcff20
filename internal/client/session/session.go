// Package session owns the authentication lifecycle: logging in, restoring
// a persisted session, silently refreshing the credential and logging out.
// The Manager is the single writer of the process-wide credential; the
// HTTP gateway reads it through the TokenSource interface on every call.
package session

import (
	"context"
	"sync"

	"github.com/avetrov/DevConnect/internal/client/gateway"
	"github.com/avetrov/DevConnect/internal/models"
	"go.uber.org/zap"
)

// State is the session lifecycle state.
type State int

const (
	// StateUninitialized means no restore has been attempted yet.
	StateUninitialized State = iota
	// StateRestoring means a restore is in flight.
	StateRestoring
	// StateAuthenticated means a valid credential and user are held.
	StateAuthenticated
	// StateAnonymous means no session exists.
	StateAnonymous
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// Gateway defines the backend operations required by the Manager.
type Gateway interface {
	Get(ctx context.Context, path string) (gateway.Result, error)
	Post(ctx context.Context, path string, body any) (gateway.Result, error)
	Patch(ctx context.Context, path string, body any) (gateway.Result, error)
}

// CredentialStore persists the access credential across restarts.
type CredentialStore interface {
	// Load returns the persisted token, or "" if none exists.
	Load() (string, error)
	// Save replaces the persisted token.
	Save(token string) error
	// Clear removes the persisted token; absent is not an error.
	Clear() error
}

// restoreCall is the in-flight guard serializing concurrent restores.
// ok is written before done is closed.
type restoreCall struct {
	done chan struct{}
	ok   bool
}

// Manager implements the session state machine
// Uninitialized → Restoring → {Authenticated, Anonymous}.
type Manager struct {
	creds CredentialStore
	gw    Gateway
	log   *zap.Logger

	mu        sync.Mutex
	token     string
	user      *models.User
	state     State
	restoring *restoreCall
}

// New constructs a Manager. The gateway must be attached with SetGateway
// before any operation is called; the two-step wiring breaks the
// construction cycle between the manager (token source) and the gateway
// (transport).
func New(creds CredentialStore, log *zap.Logger) *Manager {
	return &Manager{creds: creds, log: log, state: StateUninitialized}
}

// SetGateway attaches the backend gateway.
func (m *Manager) SetGateway(gw Gateway) {
	m.gw = gw
}

// AccessToken returns the current credential, or "" while anonymous.
// Implements gateway.TokenSource.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the authenticated user, or nil while anonymous.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// RestoreSession attempts to re-establish an authenticated session from
// the persisted credential and the refresh cookie channel. It returns
// true when a session was restored.
//
// Concurrent calls are serialized: while one restore is in flight, later
// callers wait for it and share its outcome instead of issuing duplicate
// refresh or profile calls.
func (m *Manager) RestoreSession(ctx context.Context) bool {
	m.mu.Lock()
	if m.restoring != nil {
		call := m.restoring
		m.mu.Unlock()
		<-call.done
		return call.ok
	}
	call := &restoreCall{done: make(chan struct{})}
	m.restoring = call
	m.state = StateRestoring
	m.mu.Unlock()

	ok := m.restore(ctx)

	m.mu.Lock()
	m.restoring = nil
	m.mu.Unlock()
	call.ok = ok
	close(call.done)
	return ok
}

// restore runs the actual restore protocol: profile fetch with the
// persisted credential, a single silent refresh with one retried profile
// fetch, then fail-closed to anonymous. Network failures are treated the
// same as invalid-credential failures.
func (m *Manager) restore(ctx context.Context) bool {
	token, err := m.creds.Load()
	if err != nil {
		m.log.Warn("failed to load persisted credential", zap.Error(err))
		token = ""
	}

	if token != "" {
		m.setToken(token)
		if user, err := m.fetchProfile(ctx); err == nil {
			m.setAuthenticated(user)
			m.log.Info("session restored from persisted credential")
			return true
		}
		m.log.Info("persisted credential rejected, attempting refresh")
		if _, ok := m.RefreshAccessToken(ctx); ok {
			if user, err := m.fetchProfile(ctx); err == nil {
				m.setAuthenticated(user)
				m.log.Info("session restored after credential refresh")
				return true
			}
		}
		// Dead session: the credential is already invalid server-side,
		// so purge locally without the server logout call.
		m.log.Info("session restore failed, purging credential")
		m.purgeLocal()
		return false
	}

	// No persisted credential; only the refresh cookie may survive
	// (e.g. a fresh process sharing the cookie jar).
	if _, ok := m.RefreshAccessToken(ctx); ok {
		if user, err := m.fetchProfile(ctx); err == nil {
			m.setAuthenticated(user)
			m.log.Info("session recovered from refresh channel")
			return true
		}
	}

	m.mu.Lock()
	m.state = StateAnonymous
	m.user = nil
	m.mu.Unlock()
	return false
}

// RefreshAccessToken exchanges the refresh cookie for a new credential.
// On success the new credential is installed and persisted. All failure
// modes collapse to ("", false); callers do not distinguish them.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, bool) {
	res, err := m.gw.Post(ctx, "/auth/refresh-token", nil)
	if err != nil {
		m.log.Debug("token refresh failed", zap.Error(err))
		return "", false
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := res.Decode(&data); err != nil || data.AccessToken == "" {
		m.log.Warn("token refresh returned no credential", zap.Error(err))
		return "", false
	}

	m.setToken(data.AccessToken)
	if err := m.creds.Save(data.AccessToken); err != nil {
		m.log.Warn("failed to persist refreshed credential", zap.Error(err))
	}
	return data.AccessToken, true
}

// Login authenticates with email and password, persists the returned
// credential and fetches the full user record. A failed user fetch does
// not fail the login; a minimal user is kept until the next fetch.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	res, err := m.gw.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	var data struct {
		ID          string `json:"id"`
		Username    string `json:"username"`
		AccessToken string `json:"accessToken"`
	}
	if err := res.Decode(&data); err != nil {
		return err
	}

	m.setToken(data.AccessToken)
	if err := m.creds.Save(data.AccessToken); err != nil {
		m.log.Warn("failed to persist credential", zap.Error(err))
	}

	user := models.User{ID: data.ID, Username: data.Username}
	if full, err := m.fetchUser(ctx, data.ID); err == nil {
		user = full
	} else {
		m.log.Warn("failed to fetch user after login", zap.Error(err))
	}
	m.setAuthenticated(user)
	return nil
}

// Logout invalidates the server-side refresh channel (best effort) and
// purges all local session state regardless of the server-call outcome.
func (m *Manager) Logout(ctx context.Context) {
	if _, err := m.gw.Post(ctx, "/auth/logout", nil); err != nil {
		m.log.Warn("logout call failed", zap.Error(err))
	}
	m.purgeLocal()
	m.log.Info("logged out")
}

// UpdateProfile applies a partial profile edit. On success the
// authenticated user is replaced with the server's updated record.
// Validation failures surface through the gateway error untouched.
func (m *Manager) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	res, err := m.gw.Patch(ctx, "/users/profile", update)
	if err != nil {
		return err
	}

	var user models.User
	if err := res.Decode(&user); err != nil {
		return err
	}
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
	return nil
}

// fetchProfile fetches the authenticated user's own record.
func (m *Manager) fetchProfile(ctx context.Context) (models.User, error) {
	res, err := m.gw.Get(ctx, "/users/profile")
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := res.Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// fetchUser fetches a user record by id.
func (m *Manager) fetchUser(ctx context.Context, id string) (models.User, error) {
	res, err := m.gw.Get(ctx, "/users/"+id)
	if err != nil {
		return models.User{}, err
	}
	var user models.User
	if err := res.Decode(&user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// setToken installs a new credential. The token is replaced whole under
// the lock; readers never observe a torn value.
func (m *Manager) setToken(token string) {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
}

// setAuthenticated records the user and moves to StateAuthenticated.
func (m *Manager) setAuthenticated(user models.User) {
	m.mu.Lock()
	m.user = &user
	m.state = StateAuthenticated
	m.mu.Unlock()
}

// purgeLocal clears the persisted credential and all in-memory session
// state and moves to StateAnonymous.
func (m *Manager) purgeLocal() {
	if err := m.creds.Clear(); err != nil {
		m.log.Warn("failed to clear persisted credential", zap.Error(err))
	}
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.state = StateAnonymous
	m.mu.Unlock()
}
