package domain

import "time"

// DependentKind names the record categories whose lifecycle is driven
// entirely by their customer's permanent erasure.
type DependentKind string

const (
	DependentAppointments DependentKind = "appointments"
	DependentTasks        DependentKind = "tasks"
	DependentEscalations  DependentKind = "escalations"
	DependentSales        DependentKind = "sales_transactions"
)

// Appointment is a scheduled meeting with a customer.
type Appointment struct {
	ID          string
	CustomerID  string
	Title       string
	ScheduledAt time.Time
	Location    *string
	Notes       *string
	CreatedAt   time.Time
}

// Task is a follow-up item tied to a customer.
type Task struct {
	ID         string
	CustomerID string
	Title      string
	DueAt      *time.Time
	Done       bool
	CreatedAt  time.Time
}

// Escalation records a customer complaint routed to management.
type Escalation struct {
	ID         string
	CustomerID string
	Subject    string
	Severity   string
	Resolved   bool
	CreatedAt  time.Time
}

// SaleTransaction records a completed sale for a customer.
type SaleTransaction struct {
	ID         string
	CustomerID string
	Amount     float64
	SoldAt     time.Time
	CreatedAt  time.Time
}
