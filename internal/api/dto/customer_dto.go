package dto

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// CustomerRequest payload for create/update.
type CustomerRequest struct {
	Name           string   `json:"name"`
	Email          *string  `json:"email,omitempty"`
	Phone          *string  `json:"phone,omitempty"`
	Address        *string  `json:"address,omitempty"`
	LeadStatus     string   `json:"lead_status,omitempty"`
	ShowroomID     *string  `json:"showroom_id,omitempty"`
	SalespersonID  *string  `json:"salesperson_id,omitempty"`
	PurchaseAmount *float64 `json:"purchase_amount,omitempty"`
}

// CustomerResponse is the wire shape of a customer.
type CustomerResponse struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          *string    `json:"email,omitempty"`
	Phone          *string    `json:"phone,omitempty"`
	Address        *string    `json:"address,omitempty"`
	LeadStatus     string     `json:"lead_status"`
	ShowroomID     *string    `json:"showroom_id,omitempty"`
	SalespersonID  *string    `json:"salesperson_id,omitempty"`
	PurchaseAmount *float64   `json:"purchase_amount,omitempty"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
	DeletedBy      *string    `json:"deleted_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FromCustomer maps the domain aggregate to its wire shape.
func FromCustomer(c *domain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		LeadStatus:     string(c.LeadStatus),
		ShowroomID:     c.ShowroomID,
		SalespersonID:  c.SalespersonID,
		PurchaseAmount: c.PurchaseAmount,
		DeletedAt:      c.DeletedAt,
		DeletedBy:      c.DeletedBy,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// FromCustomers maps a slice of customers.
func FromCustomers(customers []domain.Customer) []CustomerResponse {
	result := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		result = append(result, FromCustomer(&customers[i]))
	}
	return result
}
