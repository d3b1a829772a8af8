package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-service/internal/domain"
)

type memShowroomRepo struct {
	showrooms map[string]*domain.Showroom
}

func (r *memShowroomRepo) GetByID(_ context.Context, id string) (*domain.Showroom, error) {
	showroom, ok := r.showrooms[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *showroom
	return &copied, nil
}

func (r *memShowroomRepo) List(_ context.Context) ([]domain.Showroom, error) {
	var result []domain.Showroom
	for _, showroom := range r.showrooms {
		result = append(result, *showroom)
	}
	return result, nil
}

type memProfileRepo struct {
	profiles map[string]*domain.Profile
}

func (r *memProfileRepo) Create(_ context.Context, profile *domain.Profile) error {
	r.profiles[profile.ID] = profile
	return nil
}

func (r *memProfileRepo) Update(_ context.Context, profile *domain.Profile) error {
	if _, ok := r.profiles[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.profiles[profile.ID] = profile
	return nil
}

func (r *memProfileRepo) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	profile, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *profile
	return &copied, nil
}

func (r *memProfileRepo) GetByEmail(_ context.Context, email string) (*domain.Profile, error) {
	for _, profile := range r.profiles {
		if profile.Email == email {
			copied := *profile
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memProfileRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.Profile, error) {
	var result []domain.Profile
	for _, profile := range r.profiles {
		if profile.Role == role {
			result = append(result, *profile)
		}
	}
	return result, nil
}

type customerFixture struct {
	service   *CustomerService
	customers *memCustomerRepo
	showrooms *memShowroomRepo
	profiles  *memProfileRepo
}

func newCustomerFixture() *customerFixture {
	log := &deleteLog{}
	customers := newMemCustomerRepo()
	showrooms := &memShowroomRepo{showrooms: map[string]*domain.Showroom{
		"sr-1": {ID: "sr-1", Name: "Downtown", IsActive: true},
		"sr-2": {ID: "sr-2", Name: "Closed Branch", IsActive: false},
	}}
	profiles := &memProfileRepo{profiles: map[string]*domain.Profile{
		"sales-1": {ID: "sales-1", Email: "s1@example.com", Role: domain.RoleSalesperson, Active: true},
		"sales-2": {ID: "sales-2", Email: "s2@example.com", Role: domain.RoleSalesperson, Active: true},
		"mgr-1":   {ID: "mgr-1", Email: "m1@example.com", Role: domain.RoleManager, Active: true},
	}}

	svc := NewCustomerService(CustomerDependencies{
		CustomerRepo:    customers,
		ShowroomRepo:    showrooms,
		ProfileRepo:     profiles,
		AppointmentRepo: &memAppointmentRepo{deps: newDepTable("appointments", log)},
		TaskRepo:        &memTaskRepo{deps: newDepTable("tasks", log)},
		EscalationRepo:  &memEscalationRepo{deps: newDepTable("escalations", log)},
		SaleRepo:        &memSaleRepo{deps: newDepTable("sales_transactions", log)},
	})

	return &customerFixture{service: svc, customers: customers, showrooms: showrooms, profiles: profiles}
}

func TestCreateAssignsSalespersonCreator(t *testing.T) {
	f := newCustomerFixture()
	acting := &domain.Principal{ID: "sales-1", Role: domain.RoleSalesperson}

	customer, err := f.service.Create(context.Background(), acting, CustomerInput{Name: "Jane Buyer"})
	require.NoError(t, err)
	require.NotNil(t, customer.SalespersonID)
	assert.Equal(t, "sales-1", *customer.SalespersonID)
	assert.Equal(t, domain.LeadStatusNew, customer.LeadStatus)
}

func TestCreateKeepsExplicitAssignmentForManagers(t *testing.T) {
	f := newCustomerFixture()
	acting := &domain.Principal{ID: "mgr-1", Role: domain.RoleManager}
	assignee := "sales-2"

	customer, err := f.service.Create(context.Background(), acting, CustomerInput{
		Name:          "Corp Account",
		SalespersonID: &assignee,
	})
	require.NoError(t, err)
	require.NotNil(t, customer.SalespersonID)
	assert.Equal(t, "sales-2", *customer.SalespersonID)
}

func TestCreateValidation(t *testing.T) {
	f := newCustomerFixture()
	acting := &domain.Principal{ID: "mgr-1", Role: domain.RoleManager}
	inactiveShowroom := "sr-2"
	manager := "mgr-1"

	tests := []struct {
		name  string
		input CustomerInput
	}{
		{"empty name", CustomerInput{Name: "   "}},
		{"unknown lead status", CustomerInput{Name: "X", LeadStatus: "FROZEN"}},
		{"inactive showroom", CustomerInput{Name: "X", ShowroomID: &inactiveShowroom}},
		{"assignee is not a salesperson", CustomerInput{Name: "X", SalespersonID: &manager}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Create(context.Background(), acting, tc.input)
			requireDomainCode(t, err, "VALIDATION_FAILED")
		})
	}
}

func TestListActiveForcesSalespersonScope(t *testing.T) {
	f := newCustomerFixture()
	acting := &domain.Principal{ID: "sales-1", Role: domain.RoleSalesperson}
	other := "sales-2"

	// Even an explicit request for someone else's book is overridden.
	_, err := f.service.ListActive(context.Background(), acting, CustomerListFilter{SalespersonID: &other})
	require.NoError(t, err)

	require.NotNil(t, f.customers.lastFilter.SalespersonID)
	assert.Equal(t, "sales-1", *f.customers.lastFilter.SalespersonID)
}

func TestListActivePassesFilterForManagers(t *testing.T) {
	f := newCustomerFixture()
	acting := &domain.Principal{ID: "mgr-1", Role: domain.RoleManager}
	target := "sales-2"

	_, err := f.service.ListActive(context.Background(), acting, CustomerListFilter{SalespersonID: &target})
	require.NoError(t, err)

	require.NotNil(t, f.customers.lastFilter.SalespersonID)
	assert.Equal(t, "sales-2", *f.customers.lastFilter.SalespersonID)
}

func TestGetHidesForeignCustomerFromSalesperson(t *testing.T) {
	f := newCustomerFixture()
	owner := "sales-2"
	customer := &domain.Customer{Name: "Hidden", LeadStatus: domain.LeadStatusNew, SalespersonID: &owner}
	require.NoError(t, f.customers.Create(context.Background(), customer))

	acting := &domain.Principal{ID: "sales-1", Role: domain.RoleSalesperson}
	_, err := f.service.Get(context.Background(), acting, customer.ID)
	requireDomainCode(t, err, "NOT_FOUND")

	// The owner and wider roles still see it.
	_, err = f.service.Get(context.Background(), &domain.Principal{ID: "sales-2", Role: domain.RoleSalesperson}, customer.ID)
	require.NoError(t, err)
	_, err = f.service.Get(context.Background(), &domain.Principal{ID: "mgr-1", Role: domain.RoleManager}, customer.ID)
	require.NoError(t, err)
}

func TestUpdateTrashedCustomerNotFound(t *testing.T) {
	f := newCustomerFixture()
	customer := &domain.Customer{Name: "Old", LeadStatus: domain.LeadStatusNew}
	require.NoError(t, f.customers.Create(context.Background(), customer))
	require.NoError(t, f.customers.Trash(context.Background(), customer.ID, "admin-1", customer.CreatedAt))

	acting := &domain.Principal{ID: "mgr-1", Role: domain.RoleManager}
	_, err := f.service.Update(context.Background(), acting, customer.ID, CustomerInput{Name: "New"})
	requireDomainCode(t, err, "NOT_FOUND")
}
