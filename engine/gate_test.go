package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

func loggedIn(roles ...string) model.AuthState {
	return model.AuthState{Status: model.AuthLoggedIn, Username: "tester", Roles: roles}
}

func loggedOut() model.AuthState {
	return model.AuthState{Status: model.AuthLoggedOut}
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "persons", NormalizePath("/(pages)/persons"))
	assert.Equal(t, "login", NormalizePath("(auth)/login"))
	assert.Equal(t, "dashboard", NormalizePath("dashboard"))
	assert.Equal(t, "transactions/list", NormalizePath("/(pages)/transactions/list"))
}

func TestPermissionsForPath(t *testing.T) {
	perms, ok := PermissionsForPath(PersonsPath)
	require.True(t, ok)
	assert.Equal(t, []string{"admin", "manager"}, perms)

	// dropdown items resolve to the group permission
	perms, ok = PermissionsForPath(RefundsPath)
	require.True(t, ok)
	assert.Equal(t, []string{"admin"}, perms)

	// public route: present with no required roles
	perms, ok = PermissionsForPath(LoginPath)
	require.True(t, ok)
	assert.Empty(t, perms)

	_, ok = PermissionsForPath("(pages)/unknown")
	assert.False(t, ok)
}

func TestPermissionsForPathPrefixMatch(t *testing.T) {
	// a detail page under a listed route inherits its permission
	perms, ok := PermissionsForPath("(pages)/persons/42")
	require.True(t, ok)
	assert.Equal(t, []string{"admin", "manager"}, perms)
}

func TestDecideUnknownAuthWaits(t *testing.T) {
	result := Decide(model.AuthState{Status: model.AuthUnknown}, DashboardPath)
	assert.Equal(t, DecideWait, result.Decision)
}

func TestDecideLoggedOut(t *testing.T) {
	// protected routes bounce to login
	result := Decide(loggedOut(), DashboardPath)
	assert.Equal(t, DecideLoginRedirect, result.Decision)

	// public and unknown routes pass
	assert.Equal(t, DecideAllow, Decide(loggedOut(), LoginPath).Decision)
	assert.Equal(t, DecideAllow, Decide(loggedOut(), "somewhere/else").Decision)
}

func TestDecideLoggedInAuthScreens(t *testing.T) {
	result := Decide(loggedIn("admin"), LoginPath)
	assert.Equal(t, DecideHomeRedirect, result.Decision)
	assert.False(t, result.Denied)

	result = Decide(loggedIn("admin"), SignupPath)
	assert.Equal(t, DecideHomeRedirect, result.Decision)
}

func TestDecideRoleCheck(t *testing.T) {
	// admin may open the transaction list
	assert.Equal(t, DecideAllow, Decide(loggedIn("admin"), TransactionsPath).Decision)

	// a plain user may not, and the denial is surfaced
	result := Decide(loggedIn("user"), TransactionsPath)
	assert.Equal(t, DecideHomeRedirect, result.Decision)
	assert.True(t, result.Denied)

	// any one matching role suffices
	assert.Equal(t, DecideAllow, Decide(loggedIn("user", "manager"), PersonsPath).Decision)
}

func TestDecideUnknownPathAllowed(t *testing.T) {
	assert.Equal(t, DecideAllow, Decide(loggedIn("user"), "sample").Decision)
}

func TestVisibleRoutes(t *testing.T) {
	// logged out: only the auth screens
	names := routeNames(VisibleRoutes(loggedOut()))
	assert.Equal(t, []string{"Login", "Sign Up"}, names)

	// admin sees everything except auth screens
	names = routeNames(VisibleRoutes(loggedIn("admin")))
	assert.Contains(t, names, "Transaction")
	assert.Contains(t, names, "Persons")
	assert.NotContains(t, names, "Login")

	// plain user loses the role-gated entries
	names = routeNames(VisibleRoutes(loggedIn("user")))
	assert.NotContains(t, names, "Persons")
	assert.NotContains(t, names, "Transaction")
	assert.Contains(t, names, "Dashboard")
}

func routeNames(routes []Route) []string {
	names := make([]string, 0, len(routes))
	for _, r := range routes {
		names = append(names, r.Name)
	}
	return names
}

func TestRouteName(t *testing.T) {
	assert.Equal(t, "Persons", RouteName(PersonsPath))
	assert.Equal(t, "Transaction", RouteName(VoidsPath))
	assert.Equal(t, "", RouteName("nowhere"))
}

func TestHasAnyRole(t *testing.T) {
	state := loggedIn("manager")
	assert.True(t, state.HasAnyRole([]string{"admin", "manager"}))
	assert.False(t, state.HasAnyRole([]string{"admin"}))
	assert.True(t, state.HasAnyRole(nil), "no required roles means open")
}
