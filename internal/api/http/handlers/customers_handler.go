package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/service"
	apperrors "github.com/spec-kit/crm-service/pkg/util"
)

// CustomersHandler exposes the active-customer surface.
type CustomersHandler struct {
	customers *service.CustomerService
	lifecycle *service.LifecycleService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customers *service.CustomerService, lifecycle *service.LifecycleService) *CustomersHandler {
	return &CustomersHandler{customers: customers, lifecycle: lifecycle}
}

// List handles GET /api/v1/customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	filter := service.CustomerListFilter{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if v := c.Query("lead_status"); v != "" {
		status := domain.LeadStatus(v)
		if !status.Valid() {
			return apperrors.NewValidationError("unknown lead status", map[string]any{"lead_status": v})
		}
		filter.LeadStatus = &status
	}
	if v := c.Query("showroom_id"); v != "" {
		filter.ShowroomID = &v
	}
	if v := c.Query("salesperson_id"); v != "" {
		filter.SalespersonID = &v
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}

	customers, err := h.customers.ListActive(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCustomers(customers)})
}

// Create handles POST /api/v1/customers.
func (h *CustomersHandler) Create(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.customers.Create(c.UserContext(), principal, customerInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromCustomer(customer)})
}

// Get handles GET /api/v1/customers/:id.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	detail, err := h.customers.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"customer":     dto.FromCustomer(detail.Customer),
			"appointments": detail.Appointments,
			"tasks":        detail.Tasks,
			"escalations":  detail.Escalations,
			"sales":        detail.Sales,
		},
	})
}

// Update handles PUT /api/v1/customers/:id.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	var req dto.CustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	customer, err := h.customers.Update(c.UserContext(), principal, c.Params("id"), customerInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCustomer(customer)})
}

// SoftDelete handles DELETE /api/v1/customers/:id. Admin only; the
// lifecycle service re-checks the role regardless.
func (h *CustomersHandler) SoftDelete(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	if err := h.lifecycle.SoftDelete(c.UserContext(), c.Params("id"), principal); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"trashed": true}})
}

func customerInput(req dto.CustomerRequest) service.CustomerInput {
	return service.CustomerInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Address:        req.Address,
		LeadStatus:     domain.LeadStatus(req.LeadStatus),
		ShowroomID:     req.ShowroomID,
		SalespersonID:  req.SalespersonID,
		PurchaseAmount: req.PurchaseAmount,
	}
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	val := c.Query(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
