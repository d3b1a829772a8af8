package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/service"
)

// TrashHandler exposes the admin trash area: listing, restore, and
// permanent erasure.
type TrashHandler struct {
	customers *service.CustomerService
	lifecycle *service.LifecycleService
}

// NewTrashHandler constructs handler.
func NewTrashHandler(customers *service.CustomerService, lifecycle *service.LifecycleService) *TrashHandler {
	return &TrashHandler{customers: customers, lifecycle: lifecycle}
}

// List handles GET /api/v1/trash/customers.
func (h *TrashHandler) List(c *fiber.Ctx) error {
	customers, err := h.customers.ListTrash(c.UserContext(), queryInt(c, "limit", 20), queryInt(c, "offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromCustomers(customers)})
}

// Restore handles POST /api/v1/trash/customers/:id/restore.
func (h *TrashHandler) Restore(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	if err := h.lifecycle.Restore(c.UserContext(), c.Params("id"), principal); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"restored": true}})
}

// Erase handles DELETE /api/v1/trash/customers/:id. Irreversible; only
// reachable for customers already in the trash.
func (h *TrashHandler) Erase(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)

	if err := h.lifecycle.PermanentlyErase(c.UserContext(), c.Params("id"), principal); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"erased": true}})
}
