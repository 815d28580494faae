package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

// StaffHandler serves the equipment office's approval queue.
type StaffHandler struct {
	Loans        *services.LoanService
	Reservations *services.ReservationService
	Activity     *services.ActivityService
}

type reasonBody struct {
	Reason string `json:"reason" form:"reason"`
}

type bulkBody struct {
	IDs    []string `json:"ids" form:"ids"`
	Reason string   `json:"reason" form:"reason"`
}

func (h *StaffHandler) id(c *fiber.Ctx, action string) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"action": action, "field": "id"})
	}
	return id, ok
}

// GET /api/v1/staff/loans
func (h *StaffHandler) PendingLoans(c *fiber.Ctx) error {
	loans, err := h.Loans.Pending(c.UserContext(), actorOf(c), c.QueryInt("limit", 100))
	if err != nil {
		return fail(c, "staff.loans.list", err, nil)
	}
	return c.JSON(loans)
}

// POST /api/v1/staff/loans/:id/approve
func (h *StaffHandler) ApproveLoan(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.loan.approve")
	if !ok {
		return badRequest(c, "staff.loan.approve", "id")
	}
	if err := h.Loans.Approve(c.UserContext(), actorOf(c), id); err != nil {
		return fail(c, "staff.loan.approve", err, map[string]any{"loan_id": id})
	}
	applog.Audit(c, "staff.loan.approve", map[string]any{"loan_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "approved"})
}

// POST /api/v1/staff/loans/:id/reject
func (h *StaffHandler) RejectLoan(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.loan.reject")
	if !ok {
		return badRequest(c, "staff.loan.reject", "id")
	}
	var in reasonBody
	_ = c.BodyParser(&in)
	if err := h.Loans.Reject(c.UserContext(), actorOf(c), id, in.Reason); err != nil {
		return fail(c, "staff.loan.reject", err, map[string]any{"loan_id": id})
	}
	applog.Audit(c, "staff.loan.reject", map[string]any{"loan_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "rejected"})
}

// POST /api/v1/staff/loans/bulk-approve
func (h *StaffHandler) BulkApprove(c *fiber.Ctx) error {
	var in bulkBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "staff.loan.bulk_approve", "body")
	}
	res, err := h.Loans.BulkApprove(c.UserContext(), actorOf(c), in.IDs)
	if err != nil {
		return fail(c, "staff.loan.bulk_approve", err, nil)
	}
	applog.Audit(c, "staff.loan.bulk_approve", map[string]any{"ok": res.SuccessCount, "failed": res.FailedCount})
	return c.JSON(res)
}

// POST /api/v1/staff/loans/bulk-reject
func (h *StaffHandler) BulkReject(c *fiber.Ctx) error {
	var in bulkBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "staff.loan.bulk_reject", "body")
	}
	res, err := h.Loans.BulkReject(c.UserContext(), actorOf(c), in.IDs, in.Reason)
	if err != nil {
		return fail(c, "staff.loan.bulk_reject", err, nil)
	}
	applog.Audit(c, "staff.loan.bulk_reject", map[string]any{"ok": res.SuccessCount, "failed": res.FailedCount})
	return c.JSON(res)
}

// POST /api/v1/staff/reservations/:id/approve
func (h *StaffHandler) ApproveReservation(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.reservation.approve")
	if !ok {
		return badRequest(c, "staff.reservation.approve", "id")
	}
	if err := h.Reservations.Approve(c.UserContext(), actorOf(c), id); err != nil {
		return fail(c, "staff.reservation.approve", err, map[string]any{"reservation_id": id})
	}
	applog.Audit(c, "staff.reservation.approve", map[string]any{"reservation_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "approved"})
}

// POST /api/v1/staff/reservations/:id/reject
func (h *StaffHandler) RejectReservation(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.reservation.reject")
	if !ok {
		return badRequest(c, "staff.reservation.reject", "id")
	}
	var in reasonBody
	_ = c.BodyParser(&in)
	if err := h.Reservations.Reject(c.UserContext(), actorOf(c), id, in.Reason); err != nil {
		return fail(c, "staff.reservation.reject", err, map[string]any{"reservation_id": id})
	}
	applog.Audit(c, "staff.reservation.reject", map[string]any{"reservation_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "rejected"})
}

// POST /api/v1/staff/reservations/:id/ready
func (h *StaffHandler) MarkReady(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.reservation.ready")
	if !ok {
		return badRequest(c, "staff.reservation.ready", "id")
	}
	if err := h.Reservations.MarkReady(c.UserContext(), actorOf(c), id); err != nil {
		return fail(c, "staff.reservation.ready", err, map[string]any{"reservation_id": id})
	}
	applog.Audit(c, "staff.reservation.ready", map[string]any{"reservation_id": id})
	return c.JSON(fiber.Map{"id": id, "status": "ready"})
}

// POST /api/v1/staff/reservations/:id/convert
func (h *StaffHandler) Convert(c *fiber.Ctx) error {
	id, ok := h.id(c, "staff.reservation.convert")
	if !ok {
		return badRequest(c, "staff.reservation.convert", "id")
	}
	loanID, err := h.Reservations.ConvertToLoan(c.UserContext(), actorOf(c), id)
	if err != nil {
		return fail(c, "staff.reservation.convert", err, map[string]any{"reservation_id": id})
	}
	applog.Audit(c, "staff.reservation.convert", map[string]any{"reservation_id": id, "loan_id": loanID})
	return c.JSON(fiber.Map{"id": id, "status": "completed", "loan_id": loanID})
}

// GET /api/v1/staff/activity?limit=
func (h *StaffHandler) ActivityFeed(c *fiber.Ctx) error {
	rows, err := h.Activity.Recent(c.UserContext(), actorOf(c), c.QueryInt("limit", 50))
	if err != nil {
		return fail(c, "staff.activity", err, nil)
	}
	return c.JSON(rows)
}

// GET /api/v1/staff/activity/:type/:id
func (h *StaffHandler) TargetActivity(c *fiber.Ctx) error {
	rows, err := h.Activity.ForTarget(c.UserContext(), actorOf(c), c.Params("type"), c.Params("id"))
	if err != nil {
		return fail(c, "staff.activity.target", err, map[string]any{"target_type": c.Params("type")})
	}
	return c.JSON(rows)
}
