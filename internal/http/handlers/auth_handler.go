package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginBody struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "auth.login", "body")
	}
	email, ok := validate.Email(in.Email)
	if !ok || !validate.Password(in.Password) {
		applog.Security(c, "auth.login.fail", map[string]any{"email": in.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}

	token, u, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if err != nil {
		applog.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrBadCreds.Error()})
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(h.Auth.TTL),
	})
	c.Locals(applog.UserIDKey, u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"email": email, "role": string(u.Role)})
	return c.JSON(fiber.Map{
		"token": token,
		"user":  fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role, "user_type": u.UserType},
	})
}
