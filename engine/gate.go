package engine

import (
	"strings"

	"github.com/counterdeskhq/counterdesk/engine/model"
)

// Well-known route paths.
const (
	LoginPath        = "(auth)/login"
	SignupPath       = "(auth)/signup"
	DashboardPath    = "dashboard"
	PersonsPath      = "(pages)/persons"
	TransactionsPath = "(pages)/transactions/list"
	RefundsPath      = "(pages)/transactions/refund"
	VoidsPath        = "(pages)/transactions/void"
	ProfilePath      = "(pages)/profile"
	SettingsPath     = "(pages)/settings"
)

// RouteItem is one entry of a dropdown group.
type RouteItem struct {
	Title string
	Href  string
}

// Route is a row of the static permission table: either a plain link
// or a dropdown group whose items all share the group's permission.
// An empty permission list marks a public route.
type Route struct {
	Name       string
	Path       string
	Icon       string
	Permission []string
	Items      []RouteItem
}

// Routes is the static route permission table.
var Routes = []Route{
	{Name: "Dashboard", Path: DashboardPath, Icon: "dashboard", Permission: []string{"admin", "user", "manager"}},
	{Name: "Login", Path: LoginPath, Icon: "login", Permission: []string{}},
	{Name: "Sign Up", Path: SignupPath, Icon: "login", Permission: []string{}},
	{Name: "Persons", Path: PersonsPath, Icon: "person", Permission: []string{"admin", "manager"}},
	{
		Name:       "Transaction",
		Icon:       "more-vert",
		Permission: []string{"admin"},
		Items: []RouteItem{
			{Title: "List", Href: TransactionsPath},
			{Title: "Refund", Href: RefundsPath},
			{Title: "Void", Href: VoidsPath},
		},
	},
	{Name: "Profile", Path: ProfilePath, Icon: "person", Permission: []string{"admin", "user"}},
	{Name: "Settings", Path: SettingsPath, Icon: "settings", Permission: []string{"admin", "user", "manager"}},
}

// NormalizePath strips the leading slash and the (pages)/ and (auth)/
// group markers so table lookups compare bare paths.
func NormalizePath(path string) string {
	path = strings.TrimPrefix(path, "/")
	path = strings.ReplaceAll(path, "(pages)/", "")
	path = strings.ReplaceAll(path, "(auth)/", "")
	return path
}

// PermissionsForPath resolves the required roles for a path by
// first-match prefix lookup over the route table. The second return is
// false when the path is not in the table at all.
func PermissionsForPath(path string) ([]string, bool) {
	current := NormalizePath(path)

	for _, route := range Routes {
		if len(route.Items) == 0 {
			if strings.HasPrefix(current, NormalizePath(route.Path)) {
				return route.Permission, true
			}
			continue
		}
		for _, item := range route.Items {
			if strings.HasPrefix(current, NormalizePath(item.Href)) {
				return route.Permission, true
			}
		}
	}
	return nil, false
}

// RouteName returns the display name for a path, or "" when unknown.
func RouteName(path string) string {
	current := NormalizePath(path)

	for _, route := range Routes {
		if len(route.Items) == 0 {
			if NormalizePath(route.Path) == current {
				return route.Name
			}
			continue
		}
		for _, item := range route.Items {
			if NormalizePath(item.Href) == current {
				return route.Name
			}
		}
	}
	return ""
}

// Decision is the gate's verdict for a route change.
type Decision int

const (
	// DecideWait renders a loading placeholder; auth state is unknown.
	DecideWait Decision = iota
	// DecideAllow lets the navigation proceed.
	DecideAllow
	// DecideLoginRedirect sends the user to the login screen.
	DecideLoginRedirect
	// DecideHomeRedirect sends the user to the dashboard.
	DecideHomeRedirect
)

// GateResult is a decision plus whether an access-denied notice should
// be surfaced alongside the redirect.
type GateResult struct {
	Decision Decision
	Denied   bool
}

// Decide applies the navigation gate for a target path given the
// current auth state.
func Decide(state model.AuthState, path string) GateResult {
	if state.Status == model.AuthUnknown {
		return GateResult{Decision: DecideWait}
	}

	required, known := PermissionsForPath(path)
	current := NormalizePath(path)
	isAuthScreen := current == NormalizePath(LoginPath) || current == NormalizePath(SignupPath)

	if state.Status == model.AuthLoggedOut {
		if known && len(required) > 0 {
			return GateResult{Decision: DecideLoginRedirect}
		}
		return GateResult{Decision: DecideAllow}
	}

	if isAuthScreen {
		return GateResult{Decision: DecideHomeRedirect}
	}
	if known && len(required) > 0 && !state.HasAnyRole(required) {
		return GateResult{Decision: DecideHomeRedirect, Denied: true}
	}
	return GateResult{Decision: DecideAllow}
}

// VisibleRoutes returns the navigation entries the current session may
// see: public auth screens are hidden once logged in, and role-gated
// entries are dropped for sessions lacking every required role.
func VisibleRoutes(state model.AuthState) []Route {
	var out []Route
	for _, route := range Routes {
		isAuthScreen := route.Path == LoginPath || route.Path == SignupPath
		if state.Status == model.AuthLoggedIn && isAuthScreen {
			continue
		}
		if state.Status != model.AuthLoggedIn && !isAuthScreen {
			continue
		}
		if len(route.Permission) > 0 && !state.HasAnyRole(route.Permission) {
			continue
		}
		out = append(out, route)
	}
	return out
}
