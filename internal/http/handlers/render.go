package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if a := actorOf(c); a != nil {
		data["Actor"] = a
	}
	if tok, ok := c.Locals(csrfField).(string); ok {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// wantsHTML is true for browser form posts; API clients get JSON.
func wantsHTML(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMETextHTML)
}

func statusFor(err error) int {
	var ve *services.ValidationError
	var tc *services.TypeConflictError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrReviewRequired):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNotLoggedIn):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrLoanNotFound),
		errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrEquipmentNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &tc),
		errors.Is(err, services.ErrTimeConflict),
		errors.Is(err, services.ErrSpecialLoanConflict),
		errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrEquipmentUnavailable),
		errors.Is(err, services.ErrItemsUnavailable):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrConflictCheckFailed):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// logFailure records a failed action. Expected failures are security/validation events,
// anything else is logged at error level with the real cause.
func logFailure(c *fiber.Ctx, action string, err error, fields map[string]any) {
	if !services.IsUserError(err) {
		applog.Error(c, action+".fail", err, fields)
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["reason"] = services.UserMessage(err)
	applog.Security(c, action+".fail", fields)
}

// fail writes the caller-facing message for err.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	logFailure(c, action, err, fields)
	c.Status(statusFor(err))
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(fiber.Map{"error": ve.Message, "field": ve.Field})
	}
	return c.JSON(fiber.Map{"error": services.UserMessage(err)})
}

func badRequest(c *fiber.Ctx, action, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"action": action, "field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ข้อมูลไม่ถูกต้อง", "field": field})
}
