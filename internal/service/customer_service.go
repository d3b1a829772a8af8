package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// CustomerService coordinates customer CRUD for the active set. Lifecycle
// transitions live in LifecycleService.
type CustomerService struct {
	customers    repository.CustomerRepository
	showrooms    repository.ShowroomRepository
	profiles     repository.ProfileRepository
	appointments repository.AppointmentRepository
	tasks        repository.TaskRepository
	escalations  repository.EscalationRepository
	sales        repository.SaleRepository
}

// CustomerDependencies bundles repositories for the customer service.
type CustomerDependencies struct {
	CustomerRepo    repository.CustomerRepository
	ShowroomRepo    repository.ShowroomRepository
	ProfileRepo     repository.ProfileRepository
	AppointmentRepo repository.AppointmentRepository
	TaskRepo        repository.TaskRepository
	EscalationRepo  repository.EscalationRepository
	SaleRepo        repository.SaleRepository
}

// CustomerInput describes create/update payloads.
type CustomerInput struct {
	Name           string
	Email          *string
	Phone          *string
	Address        *string
	LeadStatus     domain.LeadStatus
	ShowroomID     *string
	SalespersonID  *string
	PurchaseAmount *float64
}

// CustomerListFilter describes active-customer listing parameters.
type CustomerListFilter struct {
	LeadStatus    *domain.LeadStatus
	ShowroomID    *string
	SalespersonID *string
	SearchTerm    *string
	Limit         int
	Offset        int
}

// CustomerDetail is a customer together with its dependent records.
type CustomerDetail struct {
	Customer     *domain.Customer
	Appointments []domain.Appointment
	Tasks        []domain.Task
	Escalations  []domain.Escalation
	Sales        []domain.SaleTransaction
}

// NewCustomerService constructs the service.
func NewCustomerService(deps CustomerDependencies) *CustomerService {
	return &CustomerService{
		customers:    deps.CustomerRepo,
		showrooms:    deps.ShowroomRepo,
		profiles:     deps.ProfileRepo,
		appointments: deps.AppointmentRepo,
		tasks:        deps.TaskRepo,
		escalations:  deps.EscalationRepo,
		sales:        deps.SaleRepo,
	}
}

// Create inserts a new active customer. Any authenticated role may create;
// assignments are validated as lookups, never as ownership.
func (s *CustomerService) Create(ctx context.Context, acting *domain.Principal, input CustomerInput) (*domain.Customer, error) {
	if err := s.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	// Salespeople always own the customers they create.
	if acting != nil && acting.Role == domain.RoleSalesperson && input.SalespersonID == nil {
		id := acting.ID
		input.SalespersonID = &id
	}

	customer := &domain.Customer{
		Name:           strings.TrimSpace(input.Name),
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		LeadStatus:     input.LeadStatus,
		ShowroomID:     input.ShowroomID,
		SalespersonID:  input.SalespersonID,
		PurchaseAmount: input.PurchaseAmount,
	}
	if customer.LeadStatus == "" {
		customer.LeadStatus = domain.LeadStatusNew
	}

	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// Update mutates an active customer in place.
func (s *CustomerService) Update(ctx context.Context, acting *domain.Principal, customerID string, input CustomerInput) (*domain.Customer, error) {
	customer, err := s.getScoped(ctx, acting, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, &input); err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Email = input.Email
	customer.Phone = input.Phone
	customer.Address = input.Address
	customer.LeadStatus = input.LeadStatus
	customer.ShowroomID = input.ShowroomID
	customer.SalespersonID = input.SalespersonID
	customer.PurchaseAmount = input.PurchaseAmount

	if err := s.customers.Update(ctx, customer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, err
	}
	return customer, nil
}

// Get fetches an active customer with its dependent records.
func (s *CustomerService) Get(ctx context.Context, acting *domain.Principal, customerID string) (*CustomerDetail, error) {
	customer, err := s.getScoped(ctx, acting, customerID)
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointments.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	escalations, err := s.escalations.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.ListByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	return &CustomerDetail{
		Customer:     customer,
		Appointments: appointments,
		Tasks:        tasks,
		Escalations:  escalations,
		Sales:        sales,
	}, nil
}

// ListActive returns active customers visible to the acting principal.
// Salespeople only see their own assignments; the scope is forced here
// rather than trusted from the request.
func (s *CustomerService) ListActive(ctx context.Context, acting *domain.Principal, filter CustomerListFilter) ([]domain.Customer, error) {
	repoFilter := repository.CustomerFilter{
		LeadStatus:    filter.LeadStatus,
		ShowroomID:    filter.ShowroomID,
		SalespersonID: filter.SalespersonID,
		SearchTerm:    filter.SearchTerm,
		Limit:         filter.Limit,
		Offset:        filter.Offset,
	}
	applyRoleScope(&repoFilter, acting)
	return s.customers.ListActive(ctx, repoFilter)
}

// ListTrash returns the trashed customers. Callers are admin-gated at the
// transport layer; the data itself carries no active records.
func (s *CustomerService) ListTrash(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	return s.customers.ListTrashed(ctx, limit, offset)
}

func applyRoleScope(filter *repository.CustomerFilter, acting *domain.Principal) {
	if acting != nil && acting.Role == domain.RoleSalesperson {
		id := acting.ID
		filter.SalespersonID = &id
	}
}

func (s *CustomerService) getScoped(ctx context.Context, acting *domain.Principal, customerID string) (*domain.Customer, error) {
	customer, err := s.customers.GetActiveByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, err
	}
	if acting != nil && acting.Role == domain.RoleSalesperson {
		if customer.SalespersonID == nil || *customer.SalespersonID != acting.ID {
			// Hidden rather than forbidden so assignments do not leak.
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
	}
	return customer, nil
}

func (s *CustomerService) validateInput(ctx context.Context, input *CustomerInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if input.LeadStatus != "" && !input.LeadStatus.Valid() {
		return apperrors.NewValidationError("unknown lead status", map[string]any{"lead_status": input.LeadStatus})
	}
	if input.ShowroomID != nil {
		showroom, err := s.showrooms.GetByID(ctx, *input.ShowroomID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("showroom not found", map[string]any{"showroom_id": *input.ShowroomID})
			}
			return err
		}
		if !showroom.IsActive {
			return apperrors.NewValidationError("showroom inactive", map[string]any{"showroom_id": *input.ShowroomID})
		}
	}
	if input.SalespersonID != nil {
		profile, err := s.profiles.GetByID(ctx, *input.SalespersonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewValidationError("salesperson not found", map[string]any{"salesperson_id": *input.SalespersonID})
			}
			return err
		}
		if profile.Role != domain.RoleSalesperson || !profile.Active {
			return apperrors.NewValidationError("assignee is not an active salesperson", map[string]any{"salesperson_id": *input.SalespersonID})
		}
	}
	return nil
}
