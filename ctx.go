package authclient

import "context"

var managerCtxKey = &contextKey{"manager"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithManager sets the Manager in the given context, the injection point for
// UI trees that pass dependencies through context rather than constructors.
func WithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey, m)
}

// ManagerFromContext finds the Manager from the context.
func ManagerFromContext(ctx context.Context) (*Manager, bool) {
	raw, ok := ctx.Value(managerCtxKey).(*Manager)
	return raw, ok
}

// WithSessionState sets a point-in-time SessionState in the given context.
func WithSessionState(ctx context.Context, state SessionState) context.Context {
	return context.WithValue(ctx, sessionCtxKey, state)
}

// SessionStateFromContext finds the SessionState from the context.
func SessionStateFromContext(ctx context.Context) (SessionState, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(SessionState)
	return raw, ok
}
