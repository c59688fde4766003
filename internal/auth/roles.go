package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lumen-shop/storefront-service/internal/domain"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

// RequireRoles ensures the session role is one of allowed. It must run after
// RequireAuth; a request without a session is unauthenticated, not forbidden.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("not authenticated")
		}
		if _, exists := allowedSet[session.Role]; !exists {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// RequireAdmin is RequireRoles(domain.RoleAdmin).
func RequireAdmin() fiber.Handler {
	return RequireRoles(domain.RoleAdmin)
}
