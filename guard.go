package authclient

// RouteKind is a route's declared visibility policy.
type RouteKind string

const (
	// RoutePublic renders for everyone; the guard never gates it.
	RoutePublic RouteKind = "public"
	// RoutePrivateOnly renders only for authenticated visitors.
	RoutePrivateOnly RouteKind = "private"
	// RoutePublicOnly renders only for unauthenticated visitors (login,
	// signup).
	RoutePublicOnly RouteKind = "public-only"
)

// GuardAction is what the shell should do with a gated route.
type GuardAction string

const (
	ActionRender   GuardAction = "render"
	ActionLoading  GuardAction = "loading"
	ActionRedirect GuardAction = "redirect"
)

// Decision is the guard's verdict. Target is set only for ActionRedirect.
type Decision struct {
	Action GuardAction
	Target string
}

// Guard decides whether a route renders, shows the loading placeholder, or
// redirects, as a pure function of session state and route kind. It cannot
// fail and performs no I/O.
type Guard struct {
	cfg Config
}

func NewGuard(cfg Config) *Guard {
	return &Guard{cfg: cfg}
}

// Authorize implements the gating table. The one rule that outranks all
// others: no redirect is ever issued while the status is Unknown. Bouncing a
// visitor to login before verification settles (or to home before a logout
// registers) is the classic bug in this class of system, so the loading
// decision is mandatory, not cosmetic.
func (g *Guard) Authorize(state SessionState, kind RouteKind) Decision {
	if kind == RoutePublic {
		return Decision{Action: ActionRender}
	}

	switch state.Status {
	case StatusUnknown:
		return Decision{Action: ActionLoading}
	case StatusAuthenticated:
		if kind == RoutePublicOnly {
			return Decision{Action: ActionRedirect, Target: g.cfg.GetHomeRoute()}
		}
		return Decision{Action: ActionRender}
	default:
		if kind == RoutePrivateOnly {
			return Decision{Action: ActionRedirect, Target: g.cfg.GetLoginRoute()}
		}
		return Decision{Action: ActionRender}
	}
}

// Fallback handles paths no route matched: home when authenticated, the
// landing page when not, loading while the status is still settling.
func (g *Guard) Fallback(state SessionState) Decision {
	switch state.Status {
	case StatusUnknown:
		return Decision{Action: ActionLoading}
	case StatusAuthenticated:
		return Decision{Action: ActionRedirect, Target: g.cfg.GetHomeRoute()}
	default:
		return Decision{Action: ActionRedirect, Target: g.cfg.GetLandingRoute()}
	}
}
