package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/auth"
	"github.com/lumen-shop/storefront-service/internal/domain"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

// respond writes the standard {success, message, data} envelope.
func respond(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"success": true, "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", nil)
}

func idParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{"param": name})
	}
	return id, nil
}

func requireSession(c *fiber.Ctx) (*domain.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	return session, nil
}

func optionalSession(c *fiber.Ctx) *domain.Session {
	session, _ := auth.SessionFromContext(c)
	return session
}
