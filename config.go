package authclient

import "time"

const defaultVerifyTimeout = 10 * time.Second

// Options is the plain-struct Config implementation. The zero value works
// against a backend mounted at the empty base URL with the conventional
// endpoint layout; set only what differs.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:4000/api".
	BaseURL string

	// Backend endpoint paths.
	LoginPath          string
	LogoutPath         string
	VerifyPath         string
	RegisterPath       string
	ProfilePath        string
	ForgotPasswordPath string
	ResetPasswordPath  string

	// VerifyTimeout bounds the verification round trip so the session can
	// never sit at StatusUnknown behind a hung request.
	VerifyTimeout time.Duration

	// Application route targets used by the guard.
	LoginRoute   string
	HomeRoute    string
	LandingRoute string

	// RejectedRouteKey names the cookie remembering the route a visitor was
	// bounced from, so login can send them back.
	RejectedRouteKey string
}

var _ Config = Options{}

func (o Options) GetBaseURL() string {
	return o.BaseURL
}

func (o Options) GetLoginPath() string {
	return valueOr(o.LoginPath, "/auth/login")
}

func (o Options) GetLogoutPath() string {
	return valueOr(o.LogoutPath, "/auth/logout")
}

func (o Options) GetVerifyPath() string {
	return valueOr(o.VerifyPath, "/auth/verify")
}

func (o Options) GetRegisterPath() string {
	return valueOr(o.RegisterPath, "/auth/register")
}

func (o Options) GetProfilePath() string {
	return valueOr(o.ProfilePath, "/users/profile")
}

func (o Options) GetForgotPasswordPath() string {
	return valueOr(o.ForgotPasswordPath, "/users/forgot-password")
}

func (o Options) GetResetPasswordPath() string {
	return valueOr(o.ResetPasswordPath, "/users/reset-password-secret")
}

func (o Options) GetVerifyTimeout() time.Duration {
	if o.VerifyTimeout > 0 {
		return o.VerifyTimeout
	}
	return defaultVerifyTimeout
}

func (o Options) GetLoginRoute() string {
	return valueOr(o.LoginRoute, "/login")
}

func (o Options) GetHomeRoute() string {
	return valueOr(o.HomeRoute, "/home")
}

func (o Options) GetLandingRoute() string {
	return valueOr(o.LandingRoute, "/")
}

func (o Options) GetRejectedRouteKey() string {
	return valueOr(o.RejectedRouteKey, "rejected_route")
}

func valueOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
