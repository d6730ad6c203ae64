package authclient

import (
	"github.com/gofiber/fiber/v2"
)

// FiberGuard is the Fiber-native adapter for shells built directly on
// fiber.Ctx instead of go-router.
type FiberGuard struct {
	guard   *Guard
	State   func(c *fiber.Ctx) SessionState
	Loading fiber.Handler
}

// NewFiberGuard gates routes on the manager's session store.
func NewFiberGuard(manager *Manager, cfg Config) *FiberGuard {
	return &FiberGuard{
		guard: NewGuard(cfg),
		State: func(*fiber.Ctx) SessionState {
			return manager.Store().Current()
		},
		Loading: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).SendString("Checking session...")
		},
	}
}

// Route returns a handler enforcing kind; register it ahead of the route's
// own handler.
func (f *FiberGuard) Route(kind RouteKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := f.guard.Authorize(f.State(c), kind)

		switch decision.Action {
		case ActionLoading:
			return f.Loading(c)
		case ActionRedirect:
			return c.Redirect(decision.Target, fiber.StatusSeeOther)
		default:
			return c.Next()
		}
	}
}

// RequireAuth gates a private-only route.
func (f *FiberGuard) RequireAuth() fiber.Handler {
	return f.Route(RoutePrivateOnly)
}

// RedirectIfAuthenticated gates a public-only route such as login or signup.
func (f *FiberGuard) RedirectIfAuthenticated() fiber.Handler {
	return f.Route(RoutePublicOnly)
}

// Fallback handles unmatched paths.
func (f *FiberGuard) Fallback() fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := f.guard.Fallback(f.State(c))
		if decision.Action == ActionLoading {
			return f.Loading(c)
		}
		return c.Redirect(decision.Target, fiber.StatusSeeOther)
	}
}
