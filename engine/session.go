package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

// Storage keys, fixed so sessions survive upgrades.
const (
	accessTokenKey  = "user_auth_token"
	refreshTokenKey = "user_refresh_token"
	authStateKey    = "auth_state"
)

// DefaultIdleTimeout is how long a session survives without any
// qualifying user interaction.
const DefaultIdleTimeout = 3 * time.Minute

// SessionEvent tells the UI why the session ended without an explicit
// logout call.
type SessionEvent int

const (
	// EventIdleTimeout fires when the inactivity timer expires.
	EventIdleTimeout SessionEvent = iota
	// EventUnauthorized fires when any request outside the token
	// endpoint comes back 401.
	EventUnauthorized
)

// TokenExchanger swaps credentials for a token. *Client implements it.
type TokenExchanger interface {
	Token(ctx context.Context, username, password string) (*model.TokenResponse, error)
}

// SessionOptions configures a Session.
type SessionOptions struct {
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

// DefaultSessionOptions returns the standard session configuration.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		IdleTimeout: DefaultIdleTimeout,
		Logger:      slog.Default(),
	}
}

// Session owns the auth lifecycle: login, logout, persisted state,
// inactivity auto-logout and the 401 observer. It is an explicitly
// constructed object with injected collaborators so tests can build
// isolated instances.
type Session struct {
	mu     sync.Mutex
	store  Store
	tokens TokenExchanger
	logger *slog.Logger
	state  model.AuthState
	access string
	timer  *time.Timer
	idle   time.Duration
	notify func(SessionEvent)
	closed bool
}

// NewSession builds a session manager around a store and a token
// transport. The state starts as unknown until Restore runs.
func NewSession(store Store, tokens TokenExchanger, opts SessionOptions) *Session {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Session{
		store:  store,
		tokens: tokens,
		logger: opts.Logger,
		idle:   opts.IdleTimeout,
		state:  model.AuthState{Status: model.AuthUnknown},
	}
}

// SetNotify registers the single observer for timeout/401 events. Set
// it before the first Login or Restore.
func (s *Session) SetNotify(fn func(SessionEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// State returns a copy of the current auth state.
func (s *Session) State() model.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AccessToken implements TokenProvider for the API client.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// Restore loads the persisted session. No persisted state resolves to
// logged-out; a stored token and state blob resolve to logged-in and
// arm the inactivity timer.
func (s *Session) Restore() error {
	token, hasToken, err := s.store.Get(accessTokenKey)
	if err != nil {
		return err
	}
	blob, hasState, err := s.store.Get(authStateKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !hasToken || !hasState {
		s.state = model.AuthState{Status: model.AuthLoggedOut}
		return nil
	}

	var state model.AuthState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		s.logger.Warn("discarding unreadable session state", "error", err)
		s.state = model.AuthState{Status: model.AuthLoggedOut}
		return nil
	}

	state.Status = model.AuthLoggedIn
	s.state = state
	s.access = token
	s.armTimerLocked()
	s.logger.Debug("session restored", "username", state.Username)
	return nil
}

// Login exchanges credentials for a token, persists it and transitions
// to logged-in. On failure the returned error carries the message and
// the state is left exactly as it was.
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.tokens.Token(ctx, username, password)
	if err != nil {
		s.logger.Debug("login failed", "username", username, "error", err)
		return &AuthError{Message: loginMessage(err)}
	}

	if err := s.store.Set(accessTokenKey, resp.AccessToken); err != nil {
		return err
	}
	if resp.RefreshToken != "" {
		if err := s.store.Set(refreshTokenKey, resp.RefreshToken); err != nil {
			return err
		}
	}

	roles := resp.Roles
	if len(roles) == 0 {
		// backends without a roles claim get the widest role, matching
		// the behavior of the original back office
		roles = []string{"admin"}
	}

	state := model.AuthState{
		Status:   model.AuthLoggedIn,
		Username: username,
		Roles:    roles,
		FullName: resp.FullName,
	}

	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.store.Set(authStateKey, string(blob)); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = state
	s.access = resp.AccessToken
	s.armTimerLocked()
	s.mu.Unlock()

	s.logger.Info("logged in", "username", username, "roles", roles)
	return nil
}

// Logout clears every persisted token and state entry, disarms the
// inactivity timer and transitions to logged-out. Calling it on an
// already logged-out session is a no-op beyond re-clearing storage.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.state = model.AuthState{Status: model.AuthLoggedOut}
	s.access = ""
	s.disarmTimerLocked()
	s.mu.Unlock()

	return s.store.Delete(accessTokenKey, refreshTokenKey, authStateKey)
}

// Touch re-arms the inactivity timer after a qualifying user
// interaction. There is only ever one pending expiry.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != model.AuthLoggedIn || s.closed {
		return
	}
	s.armTimerLocked()
}

// HandleUnauthorized is the observer registered with the transport's
// OnUnauthorized hook. Duplicate or concurrent 401s are safe: the
// second call sees a logged-out session and does nothing further.
func (s *Session) HandleUnauthorized() {
	s.mu.Lock()
	wasAuthenticated := s.state.Status == model.AuthLoggedIn
	s.mu.Unlock()

	if !wasAuthenticated {
		return
	}

	s.logger.Info("received 401, ending session")
	if err := s.Logout(); err != nil {
		s.logger.Warn("failed to clear session after 401", "error", err)
	}
	s.emit(EventUnauthorized)
}

// Close disarms the timer and makes further Touch calls inert. The
// persisted state is left alone.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.disarmTimerLocked()
	return nil
}

func (s *Session) expire() {
	s.mu.Lock()
	if s.state.Status != model.AuthLoggedIn || s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.logger.Info("session idle timeout elapsed")
	if err := s.Logout(); err != nil {
		s.logger.Warn("failed to clear session on idle timeout", "error", err)
	}
	s.emit(EventIdleTimeout)
}

func (s *Session) emit(event SessionEvent) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(event)
	}
}

// armTimerLocked replaces any pending expiry with a fresh one. Callers
// hold s.mu.
func (s *Session) armTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.idle, s.expire)
}

// disarmTimerLocked cancels the pending expiry. Callers hold s.mu.
func (s *Session) disarmTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func loginMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return "Login failed. Please check credentials."
}
