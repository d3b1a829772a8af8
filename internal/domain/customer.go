package domain

import "time"

// LeadStatus enumerates the sales pipeline position of a customer.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "NEW"
	LeadStatusContacted LeadStatus = "CONTACTED"
	LeadStatusQualified LeadStatus = "QUALIFIED"
	LeadStatusWon       LeadStatus = "WON"
	LeadStatusLost      LeadStatus = "LOST"
)

// Valid reports whether the status is a known pipeline stage.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// Customer is the protected aggregate of the CRM. DeletedAt and DeletedBy
// are both null or both set; a record is never half deleted. A customer
// with DeletedAt set is in the trash and excluded from active queries.
type Customer struct {
	ID             string
	Name           string
	Email          *string
	Phone          *string
	Address        *string
	LeadStatus     LeadStatus
	ShowroomID     *string
	SalespersonID  *string
	PurchaseAmount *float64
	DeletedAt      *time.Time
	DeletedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Trashed reports whether the customer is currently soft deleted.
func (c *Customer) Trashed() bool {
	return c != nil && c.DeletedAt != nil
}
