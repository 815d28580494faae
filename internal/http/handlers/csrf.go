package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
)

const (
	csrfField  = "csrf"
	csrfCookie = "csrf_"
)

// CSRF guards requests authenticated by the session cookie. Forms carry the token in a
// hidden csrf field. Requests without the cookie, or with an Authorization header, are
// not checked: a cross-site form can send neither.
func CSRF() fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfField,
		CookieName:     csrfCookie,
		CookieSameSite: "Lax",
		CookieHTTPOnly: true,
		ContextKey:     csrfField,
		Next: func(c *fiber.Ctx) bool {
			return c.Cookies(sessionCookie) == "" || headerToken(c) != "" || c.Path() == "/api/v1/auth/login"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
			c.Status(fiber.StatusForbidden)
			if wantsHTML(c) {
				return c.Render("notfound", fiber.Map{"Message": "การตรวจสอบความปลอดภัยไม่ผ่าน กรุณาโหลดหน้าใหม่แล้วลองอีกครั้ง"})
			}
			return c.JSON(fiber.Map{"error": services.ErrForbidden.Error()})
		},
	})
}
