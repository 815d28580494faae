package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

type EquipmentHandler struct {
	Equipment *services.EquipmentService
}

// GET /api/v1/equipment?q=&type=&status=&page=
func (h *EquipmentHandler) List(c *fiber.Ctx) error {
	q := ""
	if raw := strings.TrimSpace(c.Query("q")); raw != "" {
		v, ok := validate.Q(raw)
		if !ok {
			return badRequest(c, "equipment.search", "q")
		}
		q = strings.ToLower(v)
	}
	typeID := strings.TrimSpace(c.Query("type"))
	if typeID != "" {
		if _, ok := validate.ID(typeID); !ok {
			return badRequest(c, "equipment.search", "type")
		}
	}
	status := strings.TrimSpace(c.Query("status"))
	switch domain.EquipmentStatus(status) {
	case "", domain.EquipmentReady, domain.EquipmentBorrowed, domain.EquipmentMaintenance, domain.EquipmentRetired:
	default:
		return badRequest(c, "equipment.search", "status")
	}
	page := c.QueryInt("page", 1)

	items, err := h.Equipment.Search(c.UserContext(), q, typeID, status, page, c.QueryInt("page_size", 24))
	if err != nil {
		applog.Error(c, "equipment.search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": services.ErrSaveFailed.Error()})
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	return c.JSON(fiber.Map{"items": items, "page": page, "count": len(items)})
}

// GET /api/v1/equipment/:id
func (h *EquipmentHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "equipment.get", "id")
	}
	e, err := h.Equipment.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, "equipment.get", err, map[string]any{"equipment_id": id})
	}
	return c.JSON(e)
}

// GET /api/v1/equipment-types
func (h *EquipmentHandler) Types(c *fiber.Ctx) error {
	types, err := h.Equipment.Types(c.UserContext())
	if err != nil {
		applog.Error(c, "equipment.types.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": services.ErrSaveFailed.Error()})
	}
	return c.JSON(types)
}
