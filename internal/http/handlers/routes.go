package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
)

// Mount registers every route on app. Global middleware (request ids, access log,
// security headers, the global limiter) is the caller's business.
func (d *Deps) Mount(app *fiber.App, auth *services.AuthService) {
	user := RequireUser(auth)

	// HTML
	app.Get("/cart", user, d.CartHandler.View)
	app.Post("/checkout/review", user, d.CheckoutHandler.Review)

	api := app.Group("/api/v1")
	api.Post("/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "พยายามเข้าสู่ระบบหลายครั้งเกินไป กรุณาลองใหม่ภายหลัง"})
		},
	}), d.AuthHandler.Login)

	api.Get("/equipment", d.EquipmentHandler.List)
	api.Get("/equipment/:id", d.EquipmentHandler.Get)
	api.Get("/equipment-types", d.EquipmentHandler.Types)

	api.Get("/cart", user, d.CartHandler.Get)
	api.Delete("/cart", user, d.CartHandler.Clear)
	api.Post("/cart/items", user, d.CartHandler.Add)
	api.Delete("/cart/items/:id", user, d.CartHandler.Remove)

	api.Post("/checkout/review", user, d.CheckoutHandler.Review)
	api.Post("/checkout/submit", user, d.CheckoutHandler.Submit)

	api.Get("/loans", user, d.LoanHandler.Mine)
	api.Post("/loans", user, d.LoanHandler.Create)
	api.Get("/reservations", user, d.ReservationHandler.Mine)
	api.Post("/reservations", user, d.ReservationHandler.Create)
	api.Post("/reservations/:id/cancel", user, d.ReservationHandler.Cancel)

	staff := api.Group("/staff", RequireStaff(auth))
	staff.Get("/loans", d.StaffHandler.PendingLoans)
	staff.Post("/loans/bulk-approve", d.StaffHandler.BulkApprove)
	staff.Post("/loans/bulk-reject", d.StaffHandler.BulkReject)
	staff.Post("/loans/:id/approve", d.StaffHandler.ApproveLoan)
	staff.Post("/loans/:id/reject", d.StaffHandler.RejectLoan)
	staff.Post("/reservations/:id/approve", d.StaffHandler.ApproveReservation)
	staff.Post("/reservations/:id/reject", d.StaffHandler.RejectReservation)
	staff.Post("/reservations/:id/ready", d.StaffHandler.MarkReady)
	staff.Post("/reservations/:id/convert", d.StaffHandler.Convert)
	staff.Get("/activity", d.StaffHandler.ActivityFeed)
	staff.Get("/activity/:type/:id", d.StaffHandler.TargetActivity)
}

// ErrorHandler is the fiber fallback for errors no handler mapped. Internals are logged
// and never shown.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if fe, ok := err.(*fiber.Error); ok {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		err = services.ErrSaveFailed
	}
	msg := err.Error()
	if wantsHTML(c) {
		if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr == nil {
			return nil
		}
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
