package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/domain"
)

const loginPath = "/login"

// RequireRoles gates a route group on the shared authorization predicate.
// A wrong-but-valid role is sent to its own area; a missing or unresolved
// session goes back to login. Denials redirect, they do not error.
func RequireRoles(required ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := Authorize(SnapshotFromContext(c), required...)
		switch decision.Outcome {
		case Granted:
			return c.Next()
		case DeniedRedirectToOwnArea:
			return c.Redirect(decision.Role.HomePath(), fiber.StatusSeeOther)
		default:
			return c.Redirect(loginPath, fiber.StatusSeeOther)
		}
	}
}

// RequireAuthenticated gates a route on session presence alone.
func RequireAuthenticated() fiber.Handler {
	return RequireRoles()
}
