package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/api/dto"
	"github.com/lumen-shop/storefront-service/internal/service"
)

// AuthHandler exposes account endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	result, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, optionalSession(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "user registered", result)
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", result)
}

// RequestPasswordReset handles POST /password-reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	result, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, result.Message, nil)
}

// CompletePasswordReset handles POST /password-reset/complete.
func (h *AuthHandler) CompletePasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetComplete
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	message, err := h.auth.CompletePasswordReset(c.UserContext(), req.Token, req.NewPassword)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, message, nil)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session, err := requireSession(c)
	if err != nil {
		return err
	}
	user, err := h.auth.Profile(c.UserContext(), session)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", fiber.Map{"user": user})
}
