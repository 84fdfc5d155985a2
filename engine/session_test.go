package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

// fakeExchanger is a canned token endpoint.
type fakeExchanger struct {
	resp  *model.TokenResponse
	err   error
	calls int
}

func (f *fakeExchanger) Token(_ context.Context, _, _ string) (*model.TokenResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func okExchanger() *fakeExchanger {
	return &fakeExchanger{resp: &model.TokenResponse{
		AccessToken:  "tok-1",
		RefreshToken: "ref-1",
		Roles:        []string{"manager"},
		FullName:     "Tess Ter",
	}}
}

// eventRecorder collects notify callbacks.
type eventRecorder struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (r *eventRecorder) record(e SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SessionEvent, len(r.events))
	copy(out, r.events)
	return out
}

func TestSessionStartsUnknown(t *testing.T) {
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{})
	assert.Equal(t, model.AuthUnknown, s.State().Status)
}

func TestRestoreEmptyStore(t *testing.T) {
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{})
	require.NoError(t, s.Restore())
	assert.Equal(t, model.AuthLoggedOut, s.State().Status)
	assert.Empty(t, s.AccessToken())
}

func TestLoginPersistsAndRestores(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store, okExchanger(), SessionOptions{})

	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	state := s.State()
	assert.Equal(t, model.AuthLoggedIn, state.Status)
	assert.Equal(t, "tess", state.Username)
	assert.Equal(t, []string{"manager"}, state.Roles)
	assert.Equal(t, "tok-1", s.AccessToken())

	// both tokens and the state blob land in storage
	tok, ok, err := store.Get("user_auth_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-1", tok)
	_, ok, err = store.Get("user_refresh_token")
	require.NoError(t, err)
	assert.True(t, ok)

	// a second session over the same store resumes where we left off
	s2 := NewSession(store, okExchanger(), SessionOptions{})
	require.NoError(t, s2.Restore())
	assert.Equal(t, model.AuthLoggedIn, s2.State().Status)
	assert.Equal(t, "tess", s2.State().Username)
	assert.Equal(t, "tok-1", s2.AccessToken())
	require.NoError(t, s2.Close())
	require.NoError(t, s.Close())
}

func TestLoginDefaultsRoles(t *testing.T) {
	ex := &fakeExchanger{resp: &model.TokenResponse{AccessToken: "tok-2"}}
	s := NewSession(NewMemoryStore(), ex, SessionOptions{})

	require.NoError(t, s.Login(context.Background(), "tess", "secret"))
	assert.Equal(t, []string{"admin"}, s.State().Roles)
	require.NoError(t, s.Close())
}

func TestLoginFailureLeavesStateUntouched(t *testing.T) {
	ex := &fakeExchanger{err: &FetchError{Status: 401, Message: "invalid username or password"}}
	store := NewMemoryStore()
	s := NewSession(store, ex, SessionOptions{})
	require.NoError(t, s.Restore())

	err := s.Login(context.Background(), "tess", "wrong")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid username or password", authErr.Message)

	assert.Equal(t, model.AuthLoggedOut, s.State().Status)
	_, ok, _ := store.Get("user_auth_token")
	assert.False(t, ok, "no token persisted on failed login")
}

func TestLoginFailureGenericMessage(t *testing.T) {
	ex := &fakeExchanger{err: assertErr("connection refused")}
	s := NewSession(NewMemoryStore(), ex, SessionOptions{})

	err := s.Login(context.Background(), "tess", "secret")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "Login failed. Please check credentials.", authErr.Message)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

func TestLogoutClearsEverything(t *testing.T) {
	store := NewMemoryStore()
	s := NewSession(store, okExchanger(), SessionOptions{})
	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	require.NoError(t, s.Logout())
	assert.Equal(t, model.AuthLoggedOut, s.State().Status)
	assert.Empty(t, s.AccessToken())

	for _, key := range []string{"user_auth_token", "user_refresh_token", "auth_state"} {
		_, ok, err := store.Get(key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}

	// logging out twice is harmless
	require.NoError(t, s.Logout())
}

func TestIdleTimeoutExpiresOnce(t *testing.T) {
	rec := &eventRecorder{}
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{IdleTimeout: 30 * time.Millisecond})
	s.SetNotify(rec.record)

	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	require.Eventually(t, func() bool {
		return s.State().Status == model.AuthLoggedOut
	}, time.Second, 5*time.Millisecond)

	// no further expiries follow
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []SessionEvent{EventIdleTimeout}, rec.all())
	require.NoError(t, s.Close())
}

func TestTouchReArmsTimer(t *testing.T) {
	rec := &eventRecorder{}
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{IdleTimeout: 60 * time.Millisecond})
	s.SetNotify(rec.record)

	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	// keep touching for longer than the timeout; the session must hold
	for i := 0; i < 5; i++ {
		time.Sleep(25 * time.Millisecond)
		s.Touch()
	}
	assert.Equal(t, model.AuthLoggedIn, s.State().Status)
	assert.Empty(t, rec.all())

	// stop touching and it expires
	require.Eventually(t, func() bool {
		return s.State().Status == model.AuthLoggedOut
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []SessionEvent{EventIdleTimeout}, rec.all())
	require.NoError(t, s.Close())
}

func TestTouchWhileLoggedOutIsInert(t *testing.T) {
	rec := &eventRecorder{}
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{IdleTimeout: 20 * time.Millisecond})
	s.SetNotify(rec.record)
	require.NoError(t, s.Restore())

	s.Touch()
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestHandleUnauthorized(t *testing.T) {
	rec := &eventRecorder{}
	store := NewMemoryStore()
	s := NewSession(store, okExchanger(), SessionOptions{})
	s.SetNotify(rec.record)
	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	s.HandleUnauthorized()
	assert.Equal(t, model.AuthLoggedOut, s.State().Status)
	_, ok, _ := store.Get("user_auth_token")
	assert.False(t, ok)

	// concurrent in-flight requests all coming back 401 produce one
	// logout and one event
	s.HandleUnauthorized()
	s.HandleUnauthorized()
	assert.Equal(t, []SessionEvent{EventUnauthorized}, rec.all())
}

func TestCloseStopsTimer(t *testing.T) {
	rec := &eventRecorder{}
	s := NewSession(NewMemoryStore(), okExchanger(), SessionOptions{IdleTimeout: 20 * time.Millisecond})
	s.SetNotify(rec.record)
	require.NoError(t, s.Login(context.Background(), "tess", "secret"))

	require.NoError(t, s.Close())
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.all())
}

func TestStoredStateRoundTrip(t *testing.T) {
	// the persisted blob holds the profile but never the tri-state flag
	state := model.AuthState{
		Status:   model.AuthLoggedIn,
		Username: "tess",
		Roles:    []string{"manager"},
		FullName: "Tess Ter",
	}
	blob, err := json.Marshal(state)
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "Status")

	var back model.AuthState
	require.NoError(t, json.Unmarshal(blob, &back))
	assert.Equal(t, model.AuthUnknown, back.Status)
	assert.Equal(t, "tess", back.Username)
}
