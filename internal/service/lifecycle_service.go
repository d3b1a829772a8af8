package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// LifecycleService owns the customer state transitions: active to trashed,
// trashed back to active, and trashed to permanently erased. The admin role
// is re-verified inside every operation; the transport-level check is never
// trusted on its own.
type LifecycleService struct {
	customers    repository.CustomerRepository
	appointments repository.AppointmentRepository
	tasks        repository.TaskRepository
	escalations  repository.EscalationRepository
	sales        repository.SaleRepository
	dispatcher   events.Dispatcher
	logger       *zap.Logger
}

// LifecycleDependencies bundles repositories for the lifecycle service.
type LifecycleDependencies struct {
	CustomerRepo    repository.CustomerRepository
	AppointmentRepo repository.AppointmentRepository
	TaskRepo        repository.TaskRepository
	EscalationRepo  repository.EscalationRepository
	SaleRepo        repository.SaleRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		customers:    deps.CustomerRepo,
		appointments: deps.AppointmentRepo,
		tasks:        deps.TaskRepo,
		escalations:  deps.EscalationRepo,
		sales:        deps.SaleRepo,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
	}
}

// SoftDelete moves an active customer to the trash. Both deletion fields
// are set in a single atomic update so the record is never half deleted.
func (s *LifecycleService) SoftDelete(ctx context.Context, customerID string, acting *domain.Principal) error {
	if !acting.IsAdmin() {
		return apperrors.NewUnauthorized("admin role required")
	}

	if err := s.customers.Trash(ctx, customerID, acting.ID, time.Now()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return err
	}

	s.logger.Info("customer trashed",
		zap.String("customer_id", customerID),
		zap.String("deleted_by", acting.ID))
	s.publishLifecycle(ctx, events.EventCustomerTrashed, customerID, acting.ID)
	return nil
}

// Restore returns a trashed customer to the active set, clearing both
// deletion fields atomically.
func (s *LifecycleService) Restore(ctx context.Context, customerID string, acting *domain.Principal) error {
	if !acting.IsAdmin() {
		return apperrors.NewUnauthorized("admin role required")
	}

	if err := s.customers.Restore(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundInTrash(customerID)
		}
		return err
	}

	s.logger.Info("customer restored", zap.String("customer_id", customerID))
	s.publishLifecycle(ctx, events.EventCustomerRestored, customerID, acting.ID)
	return nil
}

// eraseStep is one stage of the cascading deletion pipeline. Steps run
// strictly in order and each is idempotent: deleting an already-absent
// dependent set is a no-op, so a retry after a mid-sequence failure
// converges on the same fully erased end state.
type eraseStep struct {
	kind   domain.DependentKind
	delete func(ctx context.Context, customerID string) (int64, error)
}

// PermanentlyErase irreversibly removes a trashed customer and every
// record referencing it. Trashing first is mandatory; erasing an active
// customer fails without mutating anything. Dependents are removed before
// the customer row to satisfy referential integrity, in a fixed order:
// appointments, tasks, escalations, sales transactions.
func (s *LifecycleService) PermanentlyErase(ctx context.Context, customerID string, acting *domain.Principal) error {
	if !acting.IsAdmin() {
		return apperrors.NewUnauthorized("admin role required")
	}

	if _, err := s.customers.GetTrashedByID(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundInTrash(customerID)
		}
		return err
	}

	steps := []eraseStep{
		{domain.DependentAppointments, s.appointments.DeleteByCustomer},
		{domain.DependentTasks, s.tasks.DeleteByCustomer},
		{domain.DependentEscalations, s.escalations.DeleteByCustomer},
		{domain.DependentSales, s.sales.DeleteByCustomer},
	}

	for _, step := range steps {
		removed, err := step.delete(ctx, customerID)
		if err != nil {
			// The customer stays trashed; already-deleted dependents stay
			// gone. The operator re-invokes and the remaining steps run.
			s.logger.Error("dependent deletion failed",
				zap.String("customer_id", customerID),
				zap.String("kind", string(step.kind)),
				zap.Error(err))
			return apperrors.NewDependentDeletionFailed(string(step.kind), err)
		}
		s.logger.Debug("dependents deleted",
			zap.String("customer_id", customerID),
			zap.String("kind", string(step.kind)),
			zap.Int64("count", removed))
	}

	if err := s.customers.DeleteTrashed(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundInTrash(customerID)
		}
		return err
	}

	s.logger.Info("customer erased",
		zap.String("customer_id", customerID),
		zap.String("erased_by", acting.ID))
	s.publishLifecycle(ctx, events.EventCustomerErased, customerID, acting.ID)
	return nil
}

func (s *LifecycleService) publishLifecycle(ctx context.Context, eventType events.EventType, customerID, actorID string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload: events.CustomerLifecyclePayload{
			CustomerID: customerID,
			ActorID:    actorID,
			ViewKeys:   events.LifecycleViewKeys(),
		},
	})
}
