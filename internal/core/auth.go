package core

import (
	"encoding/base64"
	"fmt"
	"net/http"
)

// AuthType represents the type of authentication.
type AuthType string

const (
	AuthTypeNone   AuthType = "none"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeBearer AuthType = "bearer"
)

// AuthTypeNames returns display names for auth types.
var AuthTypeNames = map[AuthType]string{
	AuthTypeNone:   "No Auth",
	AuthTypeBasic:  "Basic Auth",
	AuthTypeBearer: "Bearer Token",
}

// Auth describes how a request authenticates.
type Auth struct {
	Type     AuthType
	Username string
	Password string
	Token    string
}

// NewBasicAuth creates a Basic auth descriptor.
func NewBasicAuth(username, password string) *Auth {
	return &Auth{Type: AuthTypeBasic, Username: username, Password: password}
}

// NewBearerAuth creates a Bearer token descriptor.
func NewBearerAuth(token string) *Auth {
	return &Auth{Type: AuthTypeBearer, Token: token}
}

// IsZero returns true if no authentication is configured.
func (a *Auth) IsZero() bool {
	return a == nil || a.Type == "" || a.Type == AuthTypeNone
}

// Clone returns a copy of the descriptor.
func (a *Auth) Clone() *Auth {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// HeaderValue returns the Authorization header value for this descriptor.
func (a *Auth) HeaderValue() string {
	if a.IsZero() {
		return ""
	}
	switch a.Type {
	case AuthTypeBasic:
		credentials := a.Username + ":" + a.Password
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
	case AuthTypeBearer:
		return "Bearer " + a.Token
	default:
		return ""
	}
}

// Apply sets the Authorization header unless the request already carries one.
func (a *Auth) Apply(req *http.Request) {
	if a.IsZero() || req.Header.Get("Authorization") != "" {
		return
	}
	if value := a.HeaderValue(); value != "" {
		req.Header.Set("Authorization", value)
	}
}

// Summary is a short, secret-free description for status lines.
func (a *Auth) Summary() string {
	if a.IsZero() {
		return AuthTypeNames[AuthTypeNone]
	}
	switch a.Type {
	case AuthTypeBasic:
		return fmt.Sprintf("%s (%s)", AuthTypeNames[AuthTypeBasic], a.Username)
	default:
		return AuthTypeNames[a.Type]
	}
}
