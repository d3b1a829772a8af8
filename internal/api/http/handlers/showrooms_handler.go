package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/repository"
)

// ShowroomsHandler serves showroom lookups for customer assignment.
type ShowroomsHandler struct {
	showrooms repository.ShowroomRepository
}

// NewShowroomsHandler constructs handler.
func NewShowroomsHandler(showrooms repository.ShowroomRepository) *ShowroomsHandler {
	return &ShowroomsHandler{showrooms: showrooms}
}

// List handles GET /api/v1/showrooms.
func (h *ShowroomsHandler) List(c *fiber.Ctx) error {
	showrooms, err := h.showrooms.List(c.UserContext())
	if err != nil {
		return err
	}
	result := make([]fiber.Map, 0, len(showrooms))
	for _, s := range showrooms {
		result = append(result, fiber.Map{
			"id":   s.ID,
			"name": s.Name,
			"city": s.City,
		})
	}
	return c.JSON(fiber.Map{"data": result})
}
