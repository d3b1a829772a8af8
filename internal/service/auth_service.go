package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// AuthService coordinates credential exchange and session lifetime. It is
// the component that originates the sign-in/sign-out events the guard
// observes; the guard itself never drives these transitions.
type AuthService struct {
	profiles   repository.ProfileRepository
	sessions   repository.SessionRepository
	resets     repository.PasswordResetRepository
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	bcryptCost int
	sessionTTL time.Duration
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	ProfileRepo       repository.ProfileRepository
	SessionRepo       repository.SessionRepository
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		profiles:   deps.ProfileRepo,
		sessions:   deps.SessionRepo,
		resets:     deps.PasswordResetRepo,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		sessionTTL: cfg.Auth.SessionTTL(),
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// Login authenticates credentials, opens a session and issues a token
// bound to it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Principal, string, time.Time, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if !profile.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(profile.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	now := time.Now()
	session := &domain.Session{
		ID:          uuid.NewString(),
		PrincipalID: profile.ID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session, s.sessionTTL); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(profile.ID, session.ID)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	s.publishAuth(ctx, events.EventSignedIn, session.ID, profile.ID, profile.Role)
	return profile.Principal(), token, exp, nil
}

// Logout deletes the session; the guard registry observes the signed-out
// event and drops the cached state for it.
func (s *AuthService) Logout(ctx context.Context, sessionID, principalID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.publishAuth(ctx, events.EventSignedOut, sessionID, principalID, "")
	return nil
}

// CreateAccount provisions a principal with a role. Admin-gated at the
// transport layer and re-checked here.
func (s *AuthService) CreateAccount(ctx context.Context, acting *domain.Principal, email, displayName, password string, role domain.Role) (*domain.Profile, error) {
	if !acting.IsAdmin() {
		return nil, apperrors.NewUnauthorized("admin role required")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.profiles.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateDisplayName changes the caller's display name and notifies open
// sessions so cached guard state re-resolves.
func (s *AuthService) UpdateDisplayName(ctx context.Context, principalID, displayName string) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	profile.DisplayName = strings.TrimSpace(displayName)
	if profile.DisplayName == "" {
		return nil, apperrors.NewValidationError("display name required", nil)
	}
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	s.publishAuth(ctx, events.EventProfileUpdated, "", profile.ID, profile.Role)
	return profile, nil
}

// ChangePassword verifies the current password before updating.
func (s *AuthService) ChangePassword(ctx context.Context, principalID, currentPassword, newPassword string) error {
	profile, err := s.profiles.GetByID(ctx, principalID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(profile.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	profile.PasswordHash = hash
	return s.profiles.Update(ctx, profile)
}

// RequestPasswordReset persists a reset token for the account email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	profile, err := s.profiles.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		PrincipalID: profile.ID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	profile, err := s.profiles.GetByID(ctx, token.PrincipalID)
	if err != nil {
		return err
	}
	profile.PasswordHash = hash
	if err := s.profiles.Update(ctx, profile); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// ListSalespeople returns assignable salesperson profiles.
func (s *AuthService) ListSalespeople(ctx context.Context) ([]domain.Profile, error) {
	return s.profiles.ListByRole(ctx, domain.RoleSalesperson)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishAuth(ctx context.Context, eventType events.EventType, sessionID, principalID string, role domain.Role) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload: events.AuthPayload{
			SessionID:   sessionID,
			PrincipalID: principalID,
			Role:        role,
		},
	})
}
