package domain

// Role enumerates the access tiers of the CRM.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleManager     Role = "MANAGER"
	RoleSalesperson Role = "SALESPERSON"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSalesperson:
		return true
	}
	return false
}

// HomePath returns the default area a principal of this role lands on.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleManager:
		return "/manager"
	case RoleSalesperson:
		return "/sales"
	default:
		return "/login"
	}
}
