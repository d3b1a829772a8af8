package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	err      error
	gate     chan struct{}
	arrived  chan struct{}
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	if f.gate != nil {
		if f.arrived != nil {
			f.arrived <- struct{}{}
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[id], nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile
	err      error
}

func (f *fakeProfileStore) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	profile, ok := f.profiles[id]
	if !ok {
		return nil, errors.New("profile not found")
	}
	copied := *profile
	return &copied, nil
}

func sessionFixture(id, principalID string) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID:          id,
		PrincipalID: principalID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func profileFixture(id string, role domain.Role) *domain.Profile {
	return &domain.Profile{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "Test User",
		Role:        role,
		Active:      true,
	}
}

func newTestRegistry(sessions *fakeSessionStore, profiles *fakeProfileStore) *GuardRegistry {
	return NewGuardRegistry(sessions, profiles, zap.NewNop())
}

func TestAuthorize(t *testing.T) {
	manager := &domain.Principal{ID: "p1", Role: domain.RoleManager}

	tests := []struct {
		name     string
		snap     Snapshot
		required []domain.Role
		want     Outcome
		wantRole domain.Role
	}{
		{
			name:     "resolving is never granted",
			snap:     Snapshot{State: StateResolving},
			required: []domain.Role{domain.RoleManager},
			want:     DeniedRedirectToLogin,
		},
		{
			name:     "unauthenticated goes to login",
			snap:     Snapshot{State: StateUnauthenticated},
			required: []domain.Role{domain.RoleAdmin},
			want:     DeniedRedirectToLogin,
		},
		{
			name:     "matching role granted",
			snap:     Snapshot{State: StateAuthenticated, Principal: manager},
			required: []domain.Role{domain.RoleAdmin, domain.RoleManager},
			want:     Granted,
		},
		{
			name:     "wrong but valid role goes to own area",
			snap:     Snapshot{State: StateAuthenticated, Principal: manager},
			required: []domain.Role{domain.RoleAdmin},
			want:     DeniedRedirectToOwnArea,
			wantRole: domain.RoleManager,
		},
		{
			name: "no required roles only needs authentication",
			snap: Snapshot{State: StateAuthenticated, Principal: manager},
			want: Granted,
		},
		{
			name:     "authenticated without principal is denied",
			snap:     Snapshot{State: StateAuthenticated},
			required: []domain.Role{domain.RoleAdmin},
			want:     DeniedRedirectToLogin,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := Authorize(tc.snap, tc.required...)
			assert.Equal(t, tc.want, decision.Outcome)
			if tc.wantRole != "" {
				assert.Equal(t, tc.wantRole, decision.Role)
			}
		})
	}
}

func TestGuardBootsResolving(t *testing.T) {
	registry := newTestRegistry(
		&fakeSessionStore{sessions: map[string]*domain.Session{}},
		&fakeProfileStore{profiles: map[string]*domain.Profile{}},
	)

	snap := registry.Guard("s1").Snapshot()
	assert.Equal(t, StateResolving, snap.State)
	assert.Equal(t, DeniedRedirectToLogin, Authorize(snap, domain.RoleAdmin).Outcome)
}

func TestResolveAuthenticated(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleSalesperson),
	}}

	guard := newTestRegistry(sessions, profiles).Guard("s1")
	snap := guard.Resolve(context.Background())

	require.Equal(t, StateAuthenticated, snap.State)
	require.NotNil(t, snap.Principal)
	assert.Equal(t, "p1", snap.Principal.ID)
	assert.Equal(t, domain.RoleSalesperson, snap.Principal.Role)
}

func TestResolveMissingSession(t *testing.T) {
	guard := newTestRegistry(
		&fakeSessionStore{sessions: map[string]*domain.Session{}},
		&fakeProfileStore{profiles: map[string]*domain.Profile{}},
	).Guard("unknown")

	snap := guard.Resolve(context.Background())
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Principal)
}

func TestResolveFailsClosedOnProfileError(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{err: errors.New("store unavailable")}

	guard := newTestRegistry(sessions, profiles).Guard("s1")
	snap := guard.Resolve(context.Background())

	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Equal(t, DeniedRedirectToLogin, Authorize(snap, domain.RoleSalesperson).Outcome)
}

func TestResolveFailsClosedOnInactiveProfile(t *testing.T) {
	inactive := profileFixture("p1", domain.RoleAdmin)
	inactive.Active = false

	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{"p1": inactive}}

	snap := newTestRegistry(sessions, profiles).Guard("s1").Resolve(context.Background())
	assert.Equal(t, StateUnauthenticated, snap.State)
}

func TestStaleResolveDiscardedAfterInvalidate(t *testing.T) {
	gate := make(chan struct{})
	arrived := make(chan struct{}, 1)
	sessions := &fakeSessionStore{
		sessions: map[string]*domain.Session{"s1": sessionFixture("s1", "p1")},
		gate:     gate,
		arrived:  arrived,
	}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleAdmin),
	}}

	guard := newTestRegistry(sessions, profiles).Guard("s1")

	done := make(chan Snapshot, 1)
	go func() {
		done <- guard.Resolve(context.Background())
	}()

	// Sign-out lands while the session fetch is still in flight.
	<-arrived
	guard.Invalidate()
	close(gate)

	snap := <-done
	assert.Equal(t, StateUnauthenticated, snap.State,
		"resolve result issued before sign-out must be discarded")
	assert.Equal(t, StateUnauthenticated, guard.Snapshot().State)
}

func TestConcurrentResolveConverges(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleManager),
	}}

	registry := newTestRegistry(sessions, profiles)

	var wg sync.WaitGroup
	results := make([]Snapshot, 16)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			guard := registry.Guard("s1")
			snap := guard.Snapshot()
			if snap.State != StateAuthenticated {
				snap = guard.Resolve(context.Background())
			}
			results[idx] = snap
		}(i)
	}
	wg.Wait()

	for _, snap := range results {
		require.Equal(t, StateAuthenticated, snap.State)
		require.NotNil(t, snap.Principal)
		assert.Equal(t, "p1", snap.Principal.ID)
		assert.Equal(t, domain.RoleManager, snap.Principal.Role)
	}
}

func TestRegistrySharesGuardPerSession(t *testing.T) {
	registry := newTestRegistry(
		&fakeSessionStore{sessions: map[string]*domain.Session{}},
		&fakeProfileStore{profiles: map[string]*domain.Profile{}},
	)

	assert.Same(t, registry.Guard("s1"), registry.Guard("s1"))
	assert.NotSame(t, registry.Guard("s1"), registry.Guard("s2"))
}

func TestSignedOutEventDropsGuard(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleAdmin),
	}}

	registry := newTestRegistry(sessions, profiles)
	dispatcher := events.NewInMemoryDispatcher()
	registry.RegisterHandlers(dispatcher)

	guard := registry.Guard("s1")
	require.Equal(t, StateAuthenticated, guard.Resolve(context.Background()).State)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventSignedOut,
		Payload: events.AuthPayload{SessionID: "s1", PrincipalID: "p1"},
	})
	require.NoError(t, err)

	assert.Equal(t, StateUnauthenticated, guard.Snapshot().State)
	// A later request under the same id starts over from Resolving.
	assert.Equal(t, StateResolving, registry.Guard("s1").Snapshot().State)
}

func TestProfileUpdatedEventMarksStale(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*domain.Session{
		"s1": sessionFixture("s1", "p1"),
	}}
	profiles := &fakeProfileStore{profiles: map[string]*domain.Profile{
		"p1": profileFixture("p1", domain.RoleSalesperson),
	}}

	registry := newTestRegistry(sessions, profiles)
	dispatcher := events.NewInMemoryDispatcher()
	registry.RegisterHandlers(dispatcher)

	guard := registry.Guard("s1")
	require.Equal(t, StateAuthenticated, guard.Resolve(context.Background()).State)

	profiles.mu.Lock()
	profiles.profiles["p1"].Role = domain.RoleManager
	profiles.mu.Unlock()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventProfileUpdated,
		Payload: events.AuthPayload{PrincipalID: "p1"},
	})
	require.NoError(t, err)

	assert.Equal(t, StateResolving, guard.Snapshot().State)

	snap := guard.Resolve(context.Background())
	require.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, domain.RoleManager, snap.Principal.Role)
}
