package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
)

// SessionState is the guard's view of one client session.
type SessionState int

const (
	// StateResolving means the role lookup has not completed. Protected
	// content is never rendered in this state.
	StateResolving SessionState = iota
	StateUnauthenticated
	StateAuthenticated
)

// Snapshot is the cached result of session resolution. All views of the
// same session observe the same snapshot.
type Snapshot struct {
	State     SessionState
	Principal *domain.Principal
}

// Outcome enumerates authorization results.
type Outcome int

const (
	Granted Outcome = iota
	// DeniedRedirectToOwnArea means the caller holds a valid but different
	// role; policy is to send them to their own default area, not to a
	// generic error.
	DeniedRedirectToOwnArea
	DeniedRedirectToLogin
)

// Decision is the result of an authorization check. It never carries an
// error; callers branch on the outcome.
type Decision struct {
	Outcome Outcome
	Role    domain.Role
}

// Authorize is the single authorization predicate consumed by every
// protected route. A snapshot still resolving is never granted access.
func Authorize(snap Snapshot, required ...domain.Role) Decision {
	if snap.State != StateAuthenticated || snap.Principal == nil {
		return Decision{Outcome: DeniedRedirectToLogin}
	}
	if len(required) == 0 {
		return Decision{Outcome: Granted}
	}
	for _, role := range required {
		if snap.Principal.Role == role {
			return Decision{Outcome: Granted}
		}
	}
	if snap.Principal.Role.Valid() {
		return Decision{Outcome: DeniedRedirectToOwnArea, Role: snap.Principal.Role}
	}
	return Decision{Outcome: DeniedRedirectToLogin}
}

// SessionReader provides authoritative session presence.
type SessionReader interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
}

// ProfileReader resolves a principal's profile, including its role.
type ProfileReader interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// Guard caches the resolved identity and role of one client session.
// Resolution is idempotent and convergent: concurrent Resolve calls end on
// the same snapshot, and a resolve superseded by sign-out is discarded.
type Guard struct {
	sessionID string
	sessions  SessionReader
	profiles  ProfileReader
	logger    *zap.Logger

	mu   sync.Mutex
	gen  uint64
	snap Snapshot
}

func newGuard(sessionID string, sessions SessionReader, profiles ProfileReader, logger *zap.Logger) *Guard {
	return &Guard{
		sessionID: sessionID,
		sessions:  sessions,
		profiles:  profiles,
		logger:    logger,
		snap:      Snapshot{State: StateResolving},
	}
}

// Snapshot returns the current cached state without touching the store.
func (g *Guard) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snap
}

// Resolve fetches the session and, when present, the principal's profile.
// Any failure on the profile side collapses to Unauthenticated: the guard
// fails closed rather than rendering protected content with an unknown role.
func (g *Guard) Resolve(ctx context.Context) Snapshot {
	g.mu.Lock()
	gen := g.gen
	g.mu.Unlock()

	session, err := g.sessions.Get(ctx, g.sessionID)
	if err != nil {
		g.logger.Warn("session lookup failed", zap.String("session_id", g.sessionID), zap.Error(err))
		return g.commit(gen, Snapshot{State: StateUnauthenticated})
	}
	if session == nil {
		return g.commit(gen, Snapshot{State: StateUnauthenticated})
	}

	profile, err := g.profiles.GetByID(ctx, session.PrincipalID)
	if err != nil {
		g.logger.Warn("role resolution failed, treating session as unauthenticated",
			zap.String("principal_id", session.PrincipalID), zap.Error(err))
		return g.commit(gen, Snapshot{State: StateUnauthenticated})
	}
	if !profile.Active || !profile.Role.Valid() {
		return g.commit(gen, Snapshot{State: StateUnauthenticated})
	}

	return g.commit(gen, Snapshot{State: StateAuthenticated, Principal: profile.Principal()})
}

// commit installs the snapshot unless the guard moved on while the fetch
// was in flight, in which case the stale result is dropped.
func (g *Guard) commit(gen uint64, snap Snapshot) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return g.snap
	}
	g.snap = snap
	return g.snap
}

// Authorize evaluates the cached snapshot against the required roles.
func (g *Guard) Authorize(required ...domain.Role) Decision {
	return Authorize(g.Snapshot(), required...)
}

// Invalidate handles sign-out: the session is gone and any in-flight
// resolution result must not be applied.
func (g *Guard) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.snap = Snapshot{State: StateUnauthenticated}
}

// MarkStale forces a fresh resolution on next use, e.g. after a profile or
// role change. Until then the guard denies access.
func (g *Guard) MarkStale() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.snap = Snapshot{State: StateResolving}
}

// GuardRegistry is the process-wide container of per-session guard state.
// Guards boot in Resolving and are dropped on sign-out.
type GuardRegistry struct {
	sessions SessionReader
	profiles ProfileReader
	logger   *zap.Logger

	mu     sync.Mutex
	guards map[string]*Guard
}

// NewGuardRegistry constructs the registry.
func NewGuardRegistry(sessions SessionReader, profiles ProfileReader, logger *zap.Logger) *GuardRegistry {
	return &GuardRegistry{
		sessions: sessions,
		profiles: profiles,
		logger:   logger,
		guards:   make(map[string]*Guard),
	}
}

// Guard returns the shared guard for the session, creating it on first use
// so every view of the session converges on one cached snapshot.
func (r *GuardRegistry) Guard(sessionID string) *Guard {
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.guards[sessionID]; ok {
		return g
	}
	g := newGuard(sessionID, r.sessions, r.profiles, r.logger)
	r.guards[sessionID] = g
	return g
}

// RegisterHandlers subscribes the registry to identity events so open
// sessions converge without polling.
func (r *GuardRegistry) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventSignedOut, r.handleSignedOut)
	dispatcher.Subscribe(events.EventProfileUpdated, r.handleProfileUpdated)
}

func (r *GuardRegistry) handleSignedOut(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AuthPayload)
	if !ok || payload.SessionID == "" {
		return nil
	}
	r.mu.Lock()
	g, found := r.guards[payload.SessionID]
	delete(r.guards, payload.SessionID)
	r.mu.Unlock()
	if found {
		g.Invalidate()
	}
	return nil
}

func (r *GuardRegistry) handleProfileUpdated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AuthPayload)
	if !ok || payload.PrincipalID == "" {
		return nil
	}
	r.mu.Lock()
	stale := make([]*Guard, 0, len(r.guards))
	for _, g := range r.guards {
		snap := g.Snapshot()
		if snap.Principal != nil && snap.Principal.ID == payload.PrincipalID {
			stale = append(stale, g)
		}
	}
	r.mu.Unlock()
	for _, g := range stale {
		g.MarkStale()
	}
	return nil
}
