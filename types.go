package authclient

import (
	"context"
	"fmt"
	"time"
)

// Logger takes a message plus optional key-value pairs, matching structured
// loggers like charmbracelet/log so they can be passed in directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Status is the store's current belief about the session. It is tri-state:
// Unknown means verification has not settled yet and must never be read as
// "denied".
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// User is the structurally-typed slice of the backend's user record that this
// package actually depends on. Every other backend field rides along in Extra
// and is never interpreted here.
type User struct {
	ID       string         `json:"id,omitempty"`
	Email    string         `json:"email,omitempty"`
	Username string         `json:"username,omitempty"`
	Name     string         `json:"name,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// DisplayName returns the best identifying field for UI display.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	for _, v := range []string{u.Email, u.Username, u.Name, u.ID} {
		if v != "" {
			return v
		}
	}
	return ""
}

// SessionState is the single source of truth for every authorization
// decision. Credential is the opaque client-held token, empty when the
// backend relies on an httpOnly cookie the client cannot read.
type SessionState struct {
	Status     Status `json:"status"`
	User       *User  `json:"user,omitempty"`
	Credential string `json:"credential,omitempty"`
}

// IsSettled reports whether startup verification has resolved the status.
func (s SessionState) IsSettled() bool {
	return s.Status != StatusUnknown
}

// IsAuthenticated reports whether the session is currently believed valid.
func (s SessionState) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}

// CredentialStore persists the single opaque credential between runs. Get
// returns an empty string, not an error, when no credential is stored.
type CredentialStore interface {
	Get() (string, error)
	Set(credential string) error
	Clear() error
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetLoginPath() string
	GetLogoutPath() string
	GetVerifyPath() string
	GetRegisterPath() string
	GetProfilePath() string
	GetForgotPasswordPath() string
	GetResetPasswordPath() string
	GetVerifyTimeout() time.Duration
	GetLoginRoute() string
	GetHomeRoute() string
	GetLandingRoute() string
	GetRejectedRouteKey() string
}

// SessionReconciler is the operation surface the UI shell programs against.
type SessionReconciler interface {
	Start(ctx context.Context) SessionState
	Refresh(ctx context.Context) SessionState
	Login(ctx context.Context, req LoginRequest) (SessionState, error)
	Logout(ctx context.Context) SessionState
	Store() *SessionStore
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Println(append([]any{"[ERR] AUTHC", msg}, args...)...)
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Println(append([]any{"[WRN] AUTHC", msg}, args...)...)
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Println(append([]any{"[INF] AUTHC", msg}, args...)...)
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Println(append([]any{"[DBG] AUTHC", msg}, args...)...)
}
