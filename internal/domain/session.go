package domain

import "time"

// Session binds a principal to a live client for a bounded lifetime.
// Presence in the session store is authoritative: a deleted session means
// the credentials are no longer valid regardless of token expiry.
type Session struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session lifetime has elapsed.
func (s *Session) Expired(now time.Time) bool {
	return s != nil && now.After(s.ExpiresAt)
}
