package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumen-shop/storefront-service/internal/auth"
	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/repository/memory"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) ofType(t events.EventType) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type authFixture struct {
	svc    *AuthService
	store  *memory.Store
	clock  *fakeClock
	events *recorder
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:         "test-secret",
		SessionTTL:        time.Hour,
		PasswordResetTTL:  15 * time.Minute,
		BcryptCost:        bcrypt.MinCost,
		FrontendURL:       "https://shop.example.com",
		PasswordResetPath: "/redefinir_senha.html",
	}
}

func newAuthFixture(t *testing.T, mutate ...func(*config.AuthConfig)) *authFixture {
	t.Helper()
	cfg := testAuthConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	store.SetClock(clock.Now)

	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range []events.EventType{
		events.EventUserRegistered,
		events.EventPasswordResetRequested,
		events.EventPasswordResetCompleted,
		events.EventContactMessageReceived,
	} {
		dispatcher.Subscribe(et, rec.handle)
	}

	svc := NewAuthService(cfg, AuthDependencies{
		Users:       store.Users(),
		Tokens:      auth.NewTokenManager(cfg, auth.WithClock(clock.Now)),
		Hasher:      auth.NewPasswordHasher(cfg.BcryptCost),
		ResetLedger: auth.NewMemoryResetLedger(clock.Now),
		Dispatcher:  dispatcher,
		Clock:       clock.Now,
	})
	return &authFixture{svc: svc, store: store, clock: clock, events: rec}
}

func (f *authFixture) register(t *testing.T, name, email, password string) *AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password}, nil)
	require.NoError(t, err)
	return res
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, code, de.Code, "unexpected error: %v", err)
}

func adminSession() *domain.Session {
	return &domain.Session{UserID: 999, Name: "Root", Role: domain.RoleAdmin}
}
