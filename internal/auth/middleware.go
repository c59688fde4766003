package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/domain"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

const sessionKey = "auth_session"

// Middleware extracts and verifies session tokens.
type Middleware struct {
	tokens *TokenManager
	cookie string
	logger *zap.Logger
}

// NewMiddleware constructs middleware. cookie names the fallback token cookie.
func NewMiddleware(tokens *TokenManager, cookie string, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Middleware{tokens: tokens, cookie: cookie, logger: logger}
}

// RequireAuth rejects requests without a valid session token.
func (m *Middleware) RequireAuth(c *fiber.Ctx) error {
	token := m.extractToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing token")
	}

	session, err := m.tokens.VerifySession(token)
	switch {
	case err == nil:
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewUnauthorized("token expired")
	case errors.Is(err, ErrMissingSecret):
		m.logger.Error("session verification unavailable", zap.Error(err))
		return apperrors.NewInternalConfig(err)
	default:
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// OptionalAuth attaches a session when a valid token is present and otherwise
// lets the request through untouched.
func (m *Middleware) OptionalAuth(c *fiber.Ctx) error {
	if token := m.extractToken(c); token != "" {
		if session, err := m.tokens.VerifySession(token); err == nil {
			c.Locals(sessionKey, session)
		}
	}
	return c.Next()
}

func (m *Middleware) extractToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if m.cookie != "" {
		return strings.TrimSpace(c.Cookies(m.cookie))
	}
	return ""
}

// SessionFromContext retrieves the verified session, if any.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	session, ok := val.(*domain.Session)
	return session, ok
}
