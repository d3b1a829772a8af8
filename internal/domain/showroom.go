package domain

import "time"

// Showroom is a physical location customers can be assigned to.
// Customer assignment is a weak reference: lookup only, never ownership.
type Showroom struct {
	ID        string
	Name      string
	City      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
