package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
)

type memSessionRepo struct {
	sessions map[string]*domain.Session
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.Session, _ time.Duration) error {
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

type authFixture struct {
	service    *AuthService
	profiles   *memProfileRepo
	sessions   *memSessionRepo
	dispatcher *recordingDispatcher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hash, err := auth.HashPassword("correct-horse", 4)
	require.NoError(t, err)

	profiles := &memProfileRepo{profiles: map[string]*domain.Profile{
		"p1": {
			ID:           "p1",
			Email:        "admin@example.com",
			DisplayName:  "Admin",
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			Active:       true,
		},
	}}
	sessions := &memSessionRepo{sessions: make(map[string]*domain.Session)}
	dispatcher := &recordingDispatcher{}

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLMinutes:   60,
		SessionTTLMinutes:       60,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              4,
	}}

	svc := NewAuthService(cfg, AuthDependencies{
		ProfileRepo: profiles,
		SessionRepo: sessions,
		Dispatcher:  dispatcher,
	})

	return &authFixture{service: svc, profiles: profiles, sessions: sessions, dispatcher: dispatcher}
}

func TestLoginOpensSessionAndIssuesToken(t *testing.T) {
	f := newAuthFixture(t)

	principal, token, expiresAt, err := f.service.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "p1", principal.ID)
	assert.Equal(t, domain.RoleAdmin, principal.Role)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := f.service.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.SubjectID)

	session, err := f.sessions.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	require.NotNil(t, session, "token must be bound to a live session")
	assert.Equal(t, "p1", session.PrincipalID)

	assert.Len(t, f.dispatcher.byType(events.EventSignedIn), 1)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)

	_, _, _, err := f.service.Login(context.Background(), "admin@example.com", "wrong")
	requireDomainCode(t, err, "UNAUTHORIZED")

	_, _, _, err = f.service.Login(context.Background(), "nobody@example.com", "correct-horse")
	requireDomainCode(t, err, "UNAUTHORIZED")

	assert.Empty(t, f.sessions.sessions)
	assert.Empty(t, f.dispatcher.byType(events.EventSignedIn))
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.profiles.profiles["p1"].Active = false

	_, _, _, err := f.service.Login(context.Background(), "admin@example.com", "correct-horse")
	requireDomainCode(t, err, "UNAUTHORIZED")
}

func TestLogoutDeletesSessionAndPublishes(t *testing.T) {
	f := newAuthFixture(t)

	_, token, _, err := f.service.Login(context.Background(), "admin@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := f.service.TokenManager().ParseToken(token)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), claims.SessionID, "p1"))

	session, err := f.sessions.Get(context.Background(), claims.SessionID)
	require.NoError(t, err)
	assert.Nil(t, session)

	published := f.dispatcher.byType(events.EventSignedOut)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.AuthPayload)
	require.True(t, ok)
	assert.Equal(t, claims.SessionID, payload.SessionID)
}

func TestCreateAccountRequiresAdmin(t *testing.T) {
	f := newAuthFixture(t)
	manager := &domain.Principal{ID: "m1", Role: domain.RoleManager}

	_, err := f.service.CreateAccount(context.Background(), manager, "new@example.com", "New", "pw", domain.RoleSalesperson)
	requireDomainCode(t, err, "UNAUTHORIZED")
}

func TestCreateAccountRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	admin := &domain.Principal{ID: "p1", Role: domain.RoleAdmin}

	_, err := f.service.CreateAccount(context.Background(), admin, "Admin@Example.com", "Dup", "pw", domain.RoleSalesperson)
	requireDomainCode(t, err, "CONFLICT")
}

func TestCreateAccountHashesPassword(t *testing.T) {
	f := newAuthFixture(t)
	admin := &domain.Principal{ID: "p1", Role: domain.RoleAdmin}

	profile, err := f.service.CreateAccount(context.Background(), admin, "sales@example.com", "Sales", "pw-123", domain.RoleSalesperson)
	require.NoError(t, err)
	assert.NotEqual(t, "pw-123", profile.PasswordHash)
	assert.NoError(t, auth.ComparePassword(profile.PasswordHash, "pw-123"))
	assert.True(t, profile.Active)
}

func TestUpdateDisplayNamePublishesProfileUpdated(t *testing.T) {
	f := newAuthFixture(t)

	profile, err := f.service.UpdateDisplayName(context.Background(), "p1", "  Renamed  ")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", profile.DisplayName)

	published := f.dispatcher.byType(events.EventProfileUpdated)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.AuthPayload)
	require.True(t, ok)
	assert.Equal(t, "p1", payload.PrincipalID)
}
