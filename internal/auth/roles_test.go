package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
)

func newRoleTestApp(t *testing.T, role domain.Role) (*fiber.App, string) {
	t.Helper()

	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", role),
	}}

	tokens := NewTokenManager("test-secret", 60)
	registry := NewGuardRegistry(sessions, profiles, zap.NewNop())
	middleware := NewAuthMiddleware(tokens, registry)

	app := fiber.New()
	app.Get("/admin-area", middleware.Handle, RequireRoles(domain.RoleAdmin), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"principal_id": principal.ID})
	})

	token, _, err := tokens.GenerateToken("p1", "s1")
	require.NoError(t, err)
	return app, token
}

func TestRequireRolesGrantsMatchingRole(t *testing.T) {
	app, token := newRoleTestApp(t, domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin-area", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRolesRedirectsWrongRoleToOwnArea(t *testing.T) {
	app, token := newRoleTestApp(t, domain.RoleManager)

	req := httptest.NewRequest(http.MethodGet, "/admin-area", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/manager", resp.Header.Get("Location"))
}

func TestRequireRolesRedirectsAnonymousToLogin(t *testing.T) {
	app, _ := newRoleTestApp(t, domain.RoleAdmin)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin-area", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireRolesRedirectsBadTokenToLogin(t *testing.T) {
	app, _ := newRoleTestApp(t, domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/admin-area", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireRolesDeniesValidTokenWithoutSession(t *testing.T) {
	// Session store is authoritative: a signed token whose session is gone
	// does not get past the gate.
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleAdmin),
	}}
	tokens := NewTokenManager("test-secret", 60)
	middleware := NewAuthMiddleware(tokens, NewGuardRegistry(sessions, profiles, zap.NewNop()))

	app := fiber.New()
	app.Get("/admin-area", middleware.Handle, RequireRoles(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	token, _, err := tokens.GenerateToken("p1", "s1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin-area", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
