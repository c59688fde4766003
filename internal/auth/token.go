package auth

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/domain"
)

var (
	// ErrMissingSecret means no signing secret was configured.
	ErrMissingSecret = errors.New("token signing secret is not configured")
	// ErrTokenExpired means the token verified but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed covers bad signatures, structure, algorithm, purpose, issuer and audience.
	ErrTokenMalformed = errors.New("token malformed")
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultResetTTL   = 15 * time.Minute
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	audience   string
	sessionTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(cfg config.AuthConfig, opts ...TokenOption) *TokenManager {
	tm := &TokenManager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		sessionTTL: cfg.SessionTTL,
		resetTTL:   cfg.PasswordResetTTL,
		now:        time.Now,
	}
	if tm.sessionTTL <= 0 {
		tm.sessionTTL = defaultSessionTTL
	}
	if tm.resetTTL <= 0 {
		tm.resetTTL = defaultResetTTL
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Ready reports ErrMissingSecret when no signing secret is configured.
func (tm *TokenManager) Ready() error {
	if len(tm.secret) == 0 {
		return ErrMissingSecret
	}
	return nil
}

// Claims describes JWT payload.
type Claims struct {
	UserID  int64               `json:"id"`
	Name    string              `json:"name,omitempty"`
	Role    domain.Role         `json:"role,omitempty"`
	Purpose domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueSession signs a session token for the user.
func (tm *TokenManager) IssueSession(user *domain.User) (string, time.Time, error) {
	return tm.issue(&Claims{
		UserID:  user.ID,
		Name:    user.Name,
		Role:    user.Role,
		Purpose: domain.TokenPurposeSession,
	}, tm.sessionTTL)
}

// IssueReset signs a short-lived password reset token carrying only the user id.
func (tm *TokenManager) IssueReset(userID int64) (string, time.Time, error) {
	return tm.issue(&Claims{
		UserID:  userID,
		Purpose: domain.TokenPurposePasswordReset,
	}, tm.resetTTL)
}

func (tm *TokenManager) issue(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := tm.now()
	expiresAt := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatInt(claims.UserID, 10),
		Issuer:    tm.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	if tm.audience != "" {
		claims.Audience = jwt.ClaimStrings{tm.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// VerifySession validates a session token and returns its claim.
func (tm *TokenManager) VerifySession(tokenStr string) (*domain.Session, error) {
	claims, err := tm.parse(tokenStr, domain.TokenPurposeSession)
	if err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}
	return &domain.Session{
		UserID:    claims.UserID,
		Name:      claims.Name,
		Role:      claims.Role,
		TokenID:   claims.ID,
		IssuedAt:  numericTime(claims.IssuedAt),
		ExpiresAt: numericTime(claims.ExpiresAt),
	}, nil
}

// VerifyReset validates a password reset token.
func (tm *TokenManager) VerifyReset(tokenStr string) (*domain.ResetGrant, error) {
	claims, err := tm.parse(tokenStr, domain.TokenPurposePasswordReset)
	if err != nil {
		return nil, err
	}
	return &domain.ResetGrant{
		UserID:    claims.UserID,
		TokenID:   claims.ID,
		ExpiresAt: numericTime(claims.ExpiresAt),
	}, nil
}

func (tm *TokenManager) parse(tokenStr string, purpose domain.TokenPurpose) (*Claims, error) {
	if len(tm.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
		jwt.WithExpirationRequired(),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}
	if tm.audience != "" {
		opts = append(opts, jwt.WithAudience(tm.audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID <= 0 || claims.Purpose != purpose {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
