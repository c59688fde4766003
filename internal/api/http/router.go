package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/lumen-shop/storefront-service/internal/api/http/handlers"
	"github.com/lumen-shop/storefront-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	Cart           *handlers.CartHandler
	Contact        *handlers.ContactHandler
	AuthMiddleware *auth.Middleware

	// UploadsDir is served under UploadsPath when set (local file store).
	UploadsDir  string
	UploadsPath string
	// CredentialRateLimit caps credential attempts per client IP per minute; zero disables it.
	CredentialRateLimit int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.UploadsDir != "" && cfg.UploadsPath != "" {
		app.Static(cfg.UploadsPath, cfg.UploadsDir)
	}

	mw := cfg.AuthMiddleware
	throttle := credentialLimiter(cfg.CredentialRateLimit)

	for _, prefix := range []string{"", "/auth"} {
		group := app.Group(prefix)
		group.Post("/register", throttle, mw.OptionalAuth, cfg.Auth.Register)
		group.Post("/login", throttle, cfg.Auth.Login)
	}
	app.Post("/password-reset/request", throttle, cfg.Auth.RequestPasswordReset)
	app.Post("/password-reset/complete", throttle, cfg.Auth.CompletePasswordReset)
	app.Get("/auth/me", mw.RequireAuth, cfg.Auth.Me)

	products := app.Group("/products")
	products.Get("/", cfg.Products.List)
	products.Get("/:id", cfg.Products.Get)
	products.Post("/", mw.RequireAuth, auth.RequireAdmin(), cfg.Products.Create)
	products.Put("/:id", mw.RequireAuth, auth.RequireAdmin(), cfg.Products.Update)
	products.Delete("/:id", mw.RequireAuth, auth.RequireAdmin(), cfg.Products.Delete)

	cart := app.Group("/cart", mw.RequireAuth)
	cart.Get("/", cfg.Cart.Get)
	cart.Delete("/", cfg.Cart.Clear)
	cart.Post("/items", cfg.Cart.AddItem)
	cart.Put("/items/:id", cfg.Cart.UpdateItem)
	cart.Delete("/items/:id", cfg.Cart.RemoveItem)

	app.Post("/contact", mw.OptionalAuth, cfg.Contact.Submit)
	app.Get("/contact", mw.RequireAuth, auth.RequireAdmin(), cfg.Contact.List)

	app.Get("/admin/metrics", mw.RequireAuth, auth.RequireAdmin(), cfg.Health.Metrics)
}

func credentialLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(*fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many attempts, try again later")
		},
	})
}
