package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "equiploan/internal/log"
	"equiploan/internal/services"
	"equiploan/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartAddBody struct {
	EquipmentID string `json:"equipment_id" form:"equipment_id"`
}

func (h *CartHandler) payload(c *fiber.Ctx) (fiber.Map, error) {
	a := actorOf(c)
	items, err := h.Cart.Items(c.UserContext(), a)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"items": items, "count": len(items), "max": h.Cart.MaxItems(c.UserContext(), a)}, nil
}

// GET /api/v1/cart
func (h *CartHandler) Get(c *fiber.Ctx) error {
	out, err := h.payload(c)
	if err != nil {
		return fail(c, "cart.get", err, nil)
	}
	return c.JSON(out)
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	out, err := h.payload(c)
	if err != nil {
		applog.Error(c, "cart.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": services.ErrSaveFailed.Error()})
	}
	return render(c, "cart", fiber.Map{"Items": out["items"], "Count": out["count"], "Max": out["max"]})
}

// POST /api/v1/cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in cartAddBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cart.add", "body")
	}
	id, ok := validate.ID(in.EquipmentID)
	if !ok {
		return badRequest(c, "cart.add", "equipment_id")
	}
	added, err := h.Cart.Add(c.UserContext(), actorOf(c), id)
	if err != nil {
		return fail(c, "cart.add", err, map[string]any{"equipment_id": id})
	}
	out, err := h.payload(c)
	if err != nil {
		return fail(c, "cart.get", err, nil)
	}
	out["added"] = added
	return c.JSON(out)
}

// DELETE /api/v1/cart/items/:id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "cart.remove", "id")
	}
	if err := h.Cart.Remove(c.UserContext(), actorOf(c), id); err != nil {
		return fail(c, "cart.remove", err, map[string]any{"equipment_id": id})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	if err := h.Cart.Clear(c.UserContext(), actorOf(c)); err != nil {
		return fail(c, "cart.clear", err, nil)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
