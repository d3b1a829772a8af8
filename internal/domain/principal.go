package domain

import "time"

// Principal is the authenticated identity attached to a session.
type Principal struct {
	ID          string
	Role        Role
	DisplayName string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Profile is the stored account record backing a principal.
type Profile struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal projects the profile into its session identity.
func (p *Profile) Principal() *Principal {
	return &Principal{ID: p.ID, Role: p.Role, DisplayName: p.DisplayName}
}
