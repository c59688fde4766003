package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/lumen-shop/storefront-service/internal/api/http"
	"github.com/lumen-shop/storefront-service/internal/api/http/handlers"
	"github.com/lumen-shop/storefront-service/internal/auth"
	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/observability"
	"github.com/lumen-shop/storefront-service/internal/persistence"
	"github.com/lumen-shop/storefront-service/internal/repository"
	"github.com/lumen-shop/storefront-service/internal/repository/memory"
	"github.com/lumen-shop/storefront-service/internal/service"
	"github.com/lumen-shop/storefront-service/internal/storage"
	"github.com/lumen-shop/storefront-service/internal/worker"
)

const credentialAttemptsPerMinute = 20

type repositories struct {
	users    repository.UserRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	contacts repository.ContactRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Configured() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, logger)

	var resetLedger auth.ResetLedger = auth.NewMemoryResetLedger(nil)
	if redis.Configured() {
		resetLedger = persistence.NewRedisResetLedger(redis.Client)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init file store", zap.Error(err))
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET not set; token operations will fail with INTERNAL_CONFIG")
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotifications(dispatcher, logger, cfg.Notification)

	tokens := auth.NewTokenManager(cfg.Auth)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Users:       repos.users,
		Tokens:      tokens,
		Hasher:      auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		ResetLedger: resetLedger,
		Dispatcher:  dispatcher,
		Logger:      logger.Named("auth"),
	})
	catalogService := service.NewCatalogService(repos.products, files, logger.Named("catalog"))
	cartService := service.NewCartService(repos.carts, repos.products, logger.Named("cart"))
	contactService := service.NewContactService(repos.contacts, dispatcher, logger.Named("contact"))

	seedAdmin(ctx, authService, cfg.Seed, logger)

	scheduler := worker.NewScheduler(logger.Named("scheduler"))
	if err := scheduler.ScheduleCartSweep(cfg.Cart.SweepSchedule, cfg.Cart.AbandonAfter(), cartService); err != nil {
		logger.Fatal("failed to schedule cart sweep", zap.Error(err))
	}
	scheduler.Start()

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
		BodyLimit:    10 * 1024 * 1024,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	deps := map[string]handlers.Pinger{}
	if pg.Configured() {
		deps["postgres"] = pg
	}
	if redis.Configured() {
		deps["redis"] = redis
	}

	routes := httptransport.RouteConfig{
		Health:              handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps, metrics),
		Auth:                handlers.NewAuthHandler(authService),
		Products:            handlers.NewProductsHandler(catalogService),
		Cart:                handlers.NewCartHandler(cartService),
		Contact:             handlers.NewContactHandler(contactService),
		AuthMiddleware:      auth.NewMiddleware(tokens, cfg.Auth.TokenCookie, logger.Named("auth")),
		CredentialRateLimit: credentialAttemptsPerMinute,
	}
	if local, ok := files.(*storage.LocalStore); ok {
		routes.UploadsDir = local.Dir()
		routes.UploadsPath = local.PublicPath()
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	scheduler.Stop(shutdownCtx)
}

func buildRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if !pg.Configured() {
		logger.Warn("using in-memory repositories; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			users:    store.Users(),
			products: store.Products(),
			carts:    store.Carts(),
			contacts: store.Contacts(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:    repository.NewUserRepository(pool),
		products: repository.NewProductRepository(pool),
		carts:    repository.NewCartRepository(pool),
		contacts: repository.NewContactRepository(pool),
	}
}

func seedAdmin(ctx context.Context, authService *service.AuthService, seed config.SeedConfig, logger *zap.Logger) {
	if seed.AdminEmail == "" || seed.AdminPassword == "" {
		return
	}
	created, err := authService.EnsureAdmin(ctx, seed.AdminName, seed.AdminEmail, seed.AdminPassword)
	if err != nil {
		logger.Error("failed to seed admin account", zap.Error(err))
		return
	}
	if created {
		logger.Info("admin account created", zap.String("email", service.NormalizeEmail(seed.AdminEmail)))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
