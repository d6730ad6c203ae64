// Package authclient reconciles a client application's belief about its
// authentication session with a remote cookie- or token-backed session store,
// and gates navigation on that belief.
//
// Session lifecycle:
//   - A SessionStore starts every run at StatusUnknown and settles into
//     StatusAuthenticated or StatusUnauthenticated exactly once at startup,
//     when Manager.Start verifies the ambient credential against the backend.
//     Login, Logout, and Refresh re-enter the same reconciliation path.
//   - Every failure mode (server unreachable, non-JSON body, rejected
//     credential, inconsistent success) degrades to "treat as logged out";
//     the store never holds an error state.
//
// Route gating:
//   - Guard is a pure decision function over (session status, route kind)
//     producing render, loading, or redirect. It never redirects while the
//     status is still Unknown; the loading decision is a required
//     intermediate state, not optional polish. RouteGuard and FiberGuard
//     adapt the same table to go-router and Fiber handler chains.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter describing login, logout,
//     and verification outcomes. Sinks run best-effort (errors are logged)
//     so you can forward events to telemetry without blocking the session
//     lifecycle.
package authclient
