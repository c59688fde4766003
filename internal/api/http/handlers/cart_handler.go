package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/api/dto"
	"github.com/lumen-shop/storefront-service/internal/service"
)

// CartHandler exposes the caller's shopping cart.
type CartHandler struct {
	carts *service.CartService
}

// NewCartHandler constructs handler.
func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

// Get handles GET /cart.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	cart, err := h.carts.Get(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", cart)
}

// AddItem handles POST /cart/items.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	var req dto.AddCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	item, err := h.carts.AddItem(c.UserContext(), session.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "item added to cart", item)
}

// UpdateItem handles PUT /cart/items/:id.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	item, err := h.carts.UpdateItem(c.UserContext(), session.UserID, id, req.Quantity)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "cart item updated", item)
}

// RemoveItem handles DELETE /cart/items/:id.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.carts.RemoveItem(c.UserContext(), session.UserID, id); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "cart item removed", nil)
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	n, err := h.carts.Clear(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "cart cleared", fiber.Map{"removed": n})
}
