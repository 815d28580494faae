package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

type LoanHandler struct {
	Loans *services.LoanService
}

type loanBody struct {
	EquipmentID string `json:"equipment_id" form:"equipment_id"`
	StartDate   string `json:"start_date" form:"start_date"`
	StartTime   string `json:"start_time" form:"start_time"`
	EndDate     string `json:"end_date" form:"end_date"`
	ReturnTime  string `json:"return_time" form:"return_time"`
}

// at reads a date and clock pair from a request body. Both halves are required.
func at(date, clock string) (time.Time, bool) {
	t, err := services.At(strings.TrimSpace(date), strings.TrimSpace(clock))
	return t, err == nil
}

// GET /api/v1/loans
func (h *LoanHandler) Mine(c *fiber.Ctx) error {
	loans, err := h.Loans.Mine(c.UserContext(), actorOf(c))
	if err != nil {
		return fail(c, "loan.list", err, nil)
	}
	return c.JSON(loans)
}

// POST /api/v1/loans
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var in loanBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "loan.create", "body")
	}
	id, ok := validate.ID(in.EquipmentID)
	if !ok {
		return badRequest(c, "loan.create", "equipment_id")
	}
	end, ok := at(in.EndDate, in.ReturnTime)
	if !ok {
		return badRequest(c, "loan.create", "end_date")
	}
	// without a start the loan begins now
	var start time.Time
	if in.StartDate != "" || in.StartTime != "" {
		if start, ok = at(in.StartDate, in.StartTime); !ok {
			return badRequest(c, "loan.create", "start_date")
		}
	}
	loanID, err := h.Loans.Submit(c.UserContext(), actorOf(c), services.SubmitLoan{
		EquipmentID: id, Start: start, End: end, ReturnTime: strings.TrimSpace(in.ReturnTime),
	})
	if err != nil {
		return fail(c, "loan.create", err, map[string]any{"equipment_id": id})
	}
	applog.Audit(c, "loan.create", map[string]any{"loan_id": loanID, "equipment_id": id})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": loanID})
}
