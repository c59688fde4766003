package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/api/dto"
	"github.com/lumen-shop/storefront-service/internal/service"
)

// ContactHandler exposes the contact inbox.
type ContactHandler struct {
	contacts *service.ContactService
}

// NewContactHandler constructs handler.
func NewContactHandler(contacts *service.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	msg, err := h.contacts.Submit(c.UserContext(), service.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}, optionalSession(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "message received", fiber.Map{"id": msg.ID})
}

// List handles GET /contact.
func (h *ContactHandler) List(c *fiber.Ctx) error {
	msgs, err := h.contacts.List(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", msgs)
}
