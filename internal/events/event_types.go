package events

import (
	"time"

	"github.com/spec-kit/crm-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventProfileUpdated EventType = "profile_updated"

	EventCustomerTrashed  EventType = "customer_trashed"
	EventCustomerRestored EventType = "customer_restored"
	EventCustomerErased   EventType = "customer_erased"
)

// View keys invalidated after successful lifecycle transitions. The
// rendering layer in front treats these as opaque cache keys.
const (
	ViewActiveCustomers = "customers:active"
	ViewAdminDashboard  = "dashboard:admin"
	ViewCustomerTrash   = "customers:trash"
)

// LifecycleViewKeys is the invalidation set shared by every customer
// lifecycle transition.
func LifecycleViewKeys() []string {
	return []string{ViewActiveCustomers, ViewAdminDashboard, ViewCustomerTrash}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AuthPayload accompanies signed_in / signed_out / profile_updated events.
type AuthPayload struct {
	SessionID   string      `json:"session_id,omitempty"`
	PrincipalID string      `json:"principal_id"`
	Role        domain.Role `json:"role,omitempty"`
}

// CustomerLifecyclePayload accompanies customer lifecycle events.
type CustomerLifecyclePayload struct {
	CustomerID string   `json:"customer_id"`
	ActorID    string   `json:"actor_id"`
	ViewKeys   []string `json:"view_keys"`
}
