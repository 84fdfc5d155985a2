package model

// AuthStatus is the tri-state session flag. A fresh process starts at
// AuthUnknown until the persisted session has been loaded.
type AuthStatus int

const (
	AuthUnknown AuthStatus = iota
	AuthLoggedOut
	AuthLoggedIn
)

func (s AuthStatus) String() string {
	switch s {
	case AuthLoggedIn:
		return "authenticated"
	case AuthLoggedOut:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AuthState is owned by the session manager; every other component
// reads a copy and never mutates it.
type AuthState struct {
	Status   AuthStatus `json:"-"`
	Username string     `json:"username"`
	Roles    []string   `json:"roles"`
	FullName string     `json:"fullname,omitempty"`
	Email    string     `json:"email,omitempty"`
	Contact  string     `json:"contact,omitempty"`
}

// HasAnyRole reports whether the session holds at least one of the
// required roles. An empty requirement always passes.
func (a AuthState) HasAnyRole(required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, want := range required {
		for _, have := range a.Roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// TokenRequest is the password-grant payload for POST /auth/token.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
}

// TokenResponse is the data envelope of a successful token exchange.
// Roles and FullName are optional extensions; older backends omit them.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	ExpiresIn    int      `json:"expires_in"`
	TokenType    string   `json:"token_type"`
	Roles        []string `json:"roles,omitempty"`
	FullName     string   `json:"name,omitempty"`
}
