package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/domain"
)

const (
	snapshotKey  = "auth_snapshot"
	principalKey = "auth_principal"
	sessionKey   = "auth_session_id"
)

// AuthMiddleware resolves the calling session through the guard registry
// and stores the resulting snapshot for route-level authorization. It never
// denies by itself; RequireRoles owns the redirect policy.
type AuthMiddleware struct {
	tokens   *TokenManager
	registry *GuardRegistry
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, registry *GuardRegistry) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, registry: registry}
}

// Handle attaches the session snapshot for the request.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	snap := Snapshot{State: StateUnauthenticated}

	if token := bearerToken(c); token != "" {
		if claims, err := m.tokens.ParseToken(token); err == nil {
			guard := m.registry.Guard(claims.SessionID)
			snap = guard.Snapshot()
			if snap.State != StateAuthenticated {
				snap = guard.Resolve(c.UserContext())
			}
			c.Locals(sessionKey, claims.SessionID)
		}
	}

	c.Locals(snapshotKey, snap)
	if snap.State == StateAuthenticated {
		c.Locals(principalKey, snap.Principal)
	}
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// SnapshotFromContext retrieves the session snapshot for the request.
func SnapshotFromContext(c *fiber.Ctx) Snapshot {
	if val, ok := c.Locals(snapshotKey).(Snapshot); ok {
		return val
	}
	return Snapshot{State: StateUnauthenticated}
}

// SessionIDFromContext retrieves the caller's session id.
func SessionIDFromContext(c *fiber.Ctx) (string, bool) {
	val, ok := c.Locals(sessionKey).(string)
	return val, ok && val != ""
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok
}
