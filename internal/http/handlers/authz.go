package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"equiploan/internal/domain"
	applog "equiploan/internal/log"
	"equiploan/internal/services"
)

const (
	actorKey      = "actor"
	sessionCookie = "token"
)

func actorOf(c *fiber.Ctx) *domain.Actor {
	a, _ := c.Locals(actorKey).(*domain.Actor)
	return a
}

func headerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// bearer prefers the Authorization header. The session cookie is accepted only because
// CSRF checks every request that relies on it.
func bearer(c *fiber.Ctx) string {
	if tok := headerToken(c); tok != "" {
		return tok
	}
	return c.Cookies(sessionCookie)
}

func resolve(c *fiber.Ctx, auth *services.AuthService) (*domain.Actor, bool) {
	tok := bearer(c)
	if tok == "" {
		return nil, false
	}
	a, err := auth.Resolve(tok)
	if err != nil {
		applog.Security(c, "auth.token.invalid", nil)
		return nil, false
	}
	c.Locals(actorKey, a)
	c.Locals(applog.UserIDKey, a.ID)
	c.Locals(applog.RoleKey, string(a.Role))
	return a, true
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := resolve(c, auth); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrNotLoggedIn.Error()})
		}
		return c.Next()
	}
}

// RequireStaff additionally requires a staff or admin role.
func RequireStaff(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, ok := resolve(c, auth)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": services.ErrNotLoggedIn.Error()})
		}
		if !a.Role.IsStaff() {
			applog.Security(c, "access.denied.staff", map[string]any{"role": string(a.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": services.ErrForbidden.Error()})
		}
		return c.Next()
	}
}
