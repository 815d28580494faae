package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

type ReservationHandler struct {
	Reservations *services.ReservationService
}

type reservationBody struct {
	EquipmentID string `json:"equipment_id" form:"equipment_id"`
	StartDate   string `json:"start_date" form:"start_date"`
	PickupTime  string `json:"pickup_time" form:"pickup_time"`
	EndDate     string `json:"end_date" form:"end_date"`
	ReturnTime  string `json:"return_time" form:"return_time"`
}

// GET /api/v1/reservations
func (h *ReservationHandler) Mine(c *fiber.Ctx) error {
	rs, err := h.Reservations.Mine(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "reservation.list", err, nil)
	}
	return c.JSON(rs)
}

// POST /api/v1/reservations
func (h *ReservationHandler) Create(c *fiber.Ctx) error {
	var in reservationBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "reservation.create", "body")
	}
	id, ok := validate.ID(in.EquipmentID)
	if !ok {
		return badRequest(c, "reservation.create", "equipment_id")
	}
	start, ok := at(in.StartDate, in.PickupTime)
	if !ok {
		return badRequest(c, "reservation.create", "start_date")
	}
	end, ok := at(in.EndDate, in.ReturnTime)
	if !ok {
		return badRequest(c, "reservation.create", "end_date")
	}
	resID, err := h.Reservations.Create(c.UserContext(), actorOf(c), services.CreateReservation{
		EquipmentID: id, Start: start, End: end,
	})
	if err != nil {
		return fail(c, "reservation.create", err, map[string]any{"equipment_id": id})
	}
	applog.Audit(c, "reservation.create", map[string]any{"reservation_id": resID, "equipment_id": id})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": resID})
}

// POST /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "reservation.cancel", "id")
	}
	if err := h.Reservations.Cancel(c.UserContext(), actorOf(c), id); err != nil {
		return fail(c, "reservation.cancel", err, map[string]any{"reservation_id": id})
	}
	applog.Audit(c, "reservation.cancel", map[string]any{"reservation_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "cancelled"})
}
