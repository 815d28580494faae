package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

type reviewToken struct {
	Token string `json:"token" form:"token"`
}

// POST /api/v1/checkout/review, POST /checkout/review
func (h *CheckoutHandler) Review(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "checkout.review", "body")
	}
	rv, err := h.Checkout.Review(c.UserContext(), actorOf(c), req)
	if err != nil {
		if wantsHTML(c) {
			logFailure(c, "checkout.review", err, nil)
			return c.Status(statusFor(err)).Render("checkout_review", fiber.Map{"Err": services.UserMessage(err), "Request": req})
		}
		return fail(c, "checkout.review", err, map[string]any{"mode": string(req.Mode)})
	}
	applog.Info(c, "checkout.review", map[string]any{
		"mode": string(rv.Schedule.Mode), "items": len(rv.Items), "unavailable": len(rv.Unavailable),
	})
	if wantsHTML(c) {
		return render(c, "checkout_review", fiber.Map{"Review": rv, "Request": req})
	}
	return c.JSON(rv)
}

// POST /api/v1/checkout/submit
func (h *CheckoutHandler) Submit(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	var tok reviewToken
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "checkout.submit", "body")
	}
	_ = c.BodyParser(&tok)
	if tok.Token == "" {
		tok.Token = c.Get("X-Review-Token")
	}

	res, err := h.Checkout.Submit(c.UserContext(), actorOf(c), req, tok.Token)
	if err != nil {
		out := fiber.Map{"error": services.UserMessage(err)}
		fields := map[string]any{"mode": string(req.Mode)}
		if res != nil {
			// earlier items stay submitted; tell the caller which ones
			out["created"], fields["created"] = res.Created, res.Created
			out["failed_item"], fields["failed_item"] = res.FailedItem, res.FailedItem
		}
		logFailure(c, "checkout.submit", err, fields)
		return c.Status(statusFor(err)).JSON(out)
	}
	applog.Audit(c, "checkout.submit", map[string]any{"mode": string(res.Mode), "created": res.Created})
	return c.Status(fiber.StatusCreated).JSON(res)
}
