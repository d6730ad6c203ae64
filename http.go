package authclient

import (
	"net/http"
	"time"

	"github.com/goliatone/go-router"
)

// StateProvider resolves the session state a request should be gated on.
// The default provider reads the manager's store; server-rendered shells
// with per-visitor sessions can resolve state from the request instead.
type StateProvider func(c router.Context) SessionState

// RouteGuard adapts Guard decisions to go-router handler chains: loading
// decisions render a placeholder view, redirect decisions remember the
// rejected route in a short-lived cookie so login can send the visitor back.
type RouteGuard struct {
	guard          *Guard
	cfg            Config
	State          StateProvider
	Logger         Logger
	LoadingHandler func(c router.Context) error
}

// NewRouteGuard gates routes on the manager's session store.
func NewRouteGuard(manager *Manager, cfg Config) *RouteGuard {
	g := &RouteGuard{
		guard:  NewGuard(cfg),
		cfg:    cfg,
		Logger: defLogger{},
		State: func(router.Context) SessionState {
			return manager.Store().Current()
		},
	}

	g.LoadingHandler = g.defaultLoadingHandler

	return g
}

// Protect returns middleware enforcing kind for every request it wraps.
func (g *RouteGuard) Protect(kind RouteKind) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			decision := g.guard.Authorize(g.State(c), kind)

			switch decision.Action {
			case ActionLoading:
				return g.LoadingHandler(c)
			case ActionRedirect:
				if kind == RoutePrivateOnly {
					g.SetRedirect(c)
				}
				return c.Redirect(decision.Target, g.redirectStatus(c))
			default:
				return next(c)
			}
		}
	}
}

// Fallback returns the handler for unmatched paths.
func (g *RouteGuard) Fallback() router.HandlerFunc {
	return func(c router.Context) error {
		decision := g.guard.Fallback(g.State(c))
		if decision.Action == ActionLoading {
			return g.LoadingHandler(c)
		}
		return c.Redirect(decision.Target, g.redirectStatus(c))
	}
}

// SetRedirect remembers the route the visitor was bounced from.
func (g *RouteGuard) SetRedirect(c router.Context) {
	rejectedRoute := g.cfg.GetRejectedRouteKey()

	g.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", c.OriginalURL())

	c.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// GetRedirect consumes the remembered route, falling back to def.
func (g *RouteGuard) GetRedirect(c router.Context, def ...string) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	r := c.Cookies(rejectedRoute)
	if r == "" {
		if len(def) > 0 {
			return def[0]
		}
		return g.cfg.GetHomeRoute()
	}
	g.cookieDel(c, rejectedRoute)
	return r
}

// GetRedirectOrDefault consumes the remembered route, trying the Referer
// header before the configured home route.
func (g *RouteGuard) GetRedirectOrDefault(c router.Context) string {
	rejectedRoute := g.cfg.GetRejectedRouteKey()
	refererHeader := string(c.Referer())

	r := c.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = g.cfg.GetHomeRoute()
	}
	g.cookieDel(c, rejectedRoute)
	return r
}

func (g *RouteGuard) defaultLoadingHandler(c router.Context) error {
	return c.Render("loading", router.ViewContext{
		"message": "Checking session...",
	})
}

func (g *RouteGuard) redirectStatus(c router.Context) int {
	if c.Method() == string(router.GET) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

func (g *RouteGuard) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}
