package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/domain"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:        "test-secret",
		SessionTTL:       7 * 24 * time.Hour,
		PasswordResetTTL: 15 * time.Minute,
	}
}

func testUser() *domain.User {
	return &domain.User{ID: 42, Name: "Ana", Email: "ana@x.com", Role: domain.RoleCustomer}
}

func TestSessionRoundTrip(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager(testAuthConfig(), WithClock(clock.Now))

	token, exp, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(7*24*time.Hour), exp)

	session, err := tm.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)
	assert.Equal(t, "Ana", session.Name)
	assert.Equal(t, domain.RoleCustomer, session.Role)
	assert.NotEmpty(t, session.TokenID)
	assert.True(t, session.IssuedAt.Equal(clock.now))
	assert.True(t, session.ExpiresAt.Equal(exp))
}

func TestResetTokenTTLBoundary(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager(testAuthConfig(), WithClock(clock.Now))

	token, _, err := tm.IssueReset(7)
	require.NoError(t, err)

	clock.Advance(14*time.Minute + 59*time.Second)
	grant, err := tm.VerifyReset(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), grant.UserID)

	clock.Advance(2 * time.Second)
	_, err = tm.VerifyReset(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionExpires(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager(testAuthConfig(), WithClock(clock.Now))

	token, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)

	clock.Advance(7*24*time.Hour + time.Second)
	_, err = tm.VerifySession(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestPurposesAreNotInterchangeable(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	reset, _, err := tm.IssueReset(1)
	require.NoError(t, err)
	_, err = tm.VerifySession(reset)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	session, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	_, err = tm.VerifyReset(session)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "someone-else"
	foreign, _, err := NewTokenManager(otherCfg).IssueSession(testUser())
	require.NoError(t, err)

	valid, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"id":42,"role":"admin","purpose":"session","exp":4102444800}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:  42,
		Role:    domain.RoleAdmin,
		Purpose: domain.TokenPurposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong secret": foreign,
		"tampered":     tampered,
		"alg none":     unsigned,
		"garbage":      "not.a.jwt",
		"empty":        "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tm.VerifySession(token)
			assert.ErrorIs(t, err, ErrTokenMalformed)
		})
	}
}

func TestIssuerAndAudienceAreEnforced(t *testing.T) {
	cfg := testAuthConfig()
	cfg.Issuer = "storefront"
	cfg.Audience = "web"
	tm := NewTokenManager(cfg)

	token, _, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	_, err = tm.VerifySession(token)
	require.NoError(t, err)

	other := testAuthConfig()
	other.Issuer = "storefront"
	other.Audience = "mobile"
	_, err = NewTokenManager(other).VerifySession(token)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	noIssuer, _, err := NewTokenManager(testAuthConfig()).IssueSession(testUser())
	require.NoError(t, err)
	_, err = tm.VerifySession(noIssuer)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestMissingSecret(t *testing.T) {
	cfg := testAuthConfig()
	cfg.JWTSecret = ""
	tm := NewTokenManager(cfg)

	_, _, err := tm.IssueSession(testUser())
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, _, err = tm.IssueReset(1)
	assert.ErrorIs(t, err, ErrMissingSecret)
	_, err = tm.VerifySession("anything")
	assert.ErrorIs(t, err, ErrMissingSecret)
	assert.ErrorIs(t, tm.Ready(), ErrMissingSecret)
	assert.NoError(t, NewTokenManager(testAuthConfig()).Ready())
}

func TestDefaultTTLs(t *testing.T) {
	clock := newClock()
	tm := NewTokenManager(config.AuthConfig{JWTSecret: "k"}, WithClock(clock.Now))

	_, exp, err := tm.IssueSession(testUser())
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, exp.Sub(clock.now))

	_, exp, err = tm.IssueReset(1)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, exp.Sub(clock.now))
}
