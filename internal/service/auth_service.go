package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/auth"
	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/repository"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

const (
	minPasswordLength = 6

	msgInvalidCredentials = "invalid email or password"
	msgResetRequested     = "if the email is registered, a password reset link has been sent"
	msgResetCompleted     = "password updated successfully"
	msgInvalidResetToken  = "invalid or expired reset token"
)

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	hasher     *auth.PasswordHasher
	ledger     auth.ResetLedger
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	frontendURL string
	resetPath   string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Users       repository.UserRepository
	Tokens      *auth.TokenManager
	Hasher      *auth.PasswordHasher
	ResetLedger auth.ResetLedger
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       func() time.Time
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      domain.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// ResetRequestResult is the outcome of RequestPasswordReset. Link is set only
// when an account matched and never leaves the process through the API.
type ResetRequestResult struct {
	Message string `json:"message"`
	Link    string `json:"-"`
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewPasswordHasher(cfg.BcryptCost)
	}
	ledger := deps.ResetLedger
	if ledger == nil {
		ledger = auth.NewMemoryResetLedger(deps.Clock)
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	resetPath := cfg.PasswordResetPath
	if resetPath != "" && !strings.HasPrefix(resetPath, "/") {
		resetPath = "/" + resetPath
	}
	return &AuthService{
		users:       deps.Users,
		tokens:      deps.Tokens,
		hasher:      hasher,
		ledger:      ledger,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         now,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		resetPath:   resetPath,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Register creates an account and signs a session for it. caller is the
// optional session of whoever is making the request; only admins may create admins.
func (s *AuthService) Register(ctx context.Context, input RegisterInput, caller *domain.Session) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := NormalizeEmail(input.Email)
	if name == "" || email == "" || strings.TrimSpace(input.Password) == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}
	if !validEmail(email) {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if err := checkPassword(input.Password); err != nil {
		return nil, err
	}

	role := domain.RoleCustomer
	if r := strings.TrimSpace(input.Role); r != "" {
		role = domain.Role(strings.ToLower(r))
		if !role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role"})
		}
	}
	if role == domain.RoleAdmin && (caller == nil || caller.Role != domain.RoleAdmin) {
		return nil, apperrors.NewForbidden("only administrators can create administrator accounts")
	}
	if err := s.tokens.Ready(); err != nil {
		return nil, apperrors.NewInternalConfig(err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("register", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, s.internal("register", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, s.internal("register", err)
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, &user.ID, events.UserRegisteredPayload{
		Name:  user.Name,
		Email: user.Email,
		Role:  string(user.Role),
	})
	return result, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password are required", nil)
	}
	if err := s.tokens.Ready(); err != nil {
		return nil, apperrors.NewInternalConfig(err)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, s.internal("login", err)
		}
		s.hasher.EqualizeTiming(password)
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	if !s.hasher.Verify(password, user.PasswordHash) || !user.Active {
		s.logger.Info("login rejected", zap.Int64("user_id", user.ID))
		return nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	return s.session(user)
}

// RequestPasswordReset issues a reset link for the account behind email, if
// any. The result is identical whether or not the account exists.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if s.frontendURL == "" {
		return nil, apperrors.NewInternalConfig(errors.New("FRONTEND_URL is not configured"))
	}
	if err := s.tokens.Ready(); err != nil {
		return nil, apperrors.NewInternalConfig(err)
	}

	result := &ResetRequestResult{Message: msgResetRequested}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil
		}
		return nil, s.internal("request password reset", err)
	}
	if !user.Active {
		return result, nil
	}

	token, expiresAt, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return nil, s.internal("request password reset", err)
	}
	result.Link = s.frontendURL + s.resetPath + "?token=" + token

	s.publish(ctx, events.EventPasswordResetRequested, &user.ID, events.PasswordResetRequestedPayload{
		Email:     user.Email,
		Link:      result.Link,
		ExpiresAt: expiresAt,
	})
	return result, nil
}

// CompletePasswordReset redeems a reset token and replaces the password hash.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(newPassword) == "" {
		return "", apperrors.NewValidationError("token and new password are required", nil)
	}
	if err := checkPassword(newPassword); err != nil {
		return "", err
	}

	grant, err := s.tokens.VerifyReset(token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return "", apperrors.NewInternalConfig(err)
		}
		return "", apperrors.NewValidationError(msgInvalidResetToken, nil)
	}

	user, err := s.users.GetByID(ctx, grant.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NewNotFound("user", nil)
		}
		return "", s.internal("complete password reset", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", s.internal("complete password reset", err)
	}

	fresh, err := s.ledger.Consume(ctx, grant.TokenID, grant.ExpiresAt)
	if err != nil {
		return "", s.internal("complete password reset", err)
	}
	if !fresh {
		return "", apperrors.NewValidationError(msgInvalidResetToken, nil)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if releaseErr := s.ledger.Release(ctx, grant.TokenID); releaseErr != nil {
			s.logger.Warn("release reset token", zap.Error(releaseErr))
		}
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NewNotFound("user", nil)
		}
		return "", s.internal("complete password reset", err)
	}

	s.publish(ctx, events.EventPasswordResetCompleted, &user.ID, nil)
	return msgResetCompleted, nil
}

// Profile returns the public view of the session's user.
func (s *AuthService) Profile(ctx context.Context, session *domain.Session) (*domain.PublicUser, error) {
	if session == nil {
		return nil, apperrors.NewUnauthorized("not authenticated")
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, s.internal("profile", err)
	}
	public := user.Public()
	return &public, nil
}

// EnsureAdmin creates an administrator account for email unless one already
// exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return false, apperrors.NewValidationError("invalid admin email", nil)
	}
	if err := checkPassword(password); err != nil {
		return false, err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) session(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.IssueSession(user)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return nil, apperrors.NewInternalConfig(err)
		}
		return nil, s.internal("issue session", err)
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID *int64, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func (s *AuthService) internal(op string, err error) error {
	s.logger.Error(op+" failed", zap.Error(err))
	return apperrors.NewInternalError(err)
}

// checkPassword bounds the raw password; surrounding spaces are kept and hashed.
func checkPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return apperrors.NewValidationError("password is required", map[string]any{"field": "password"})
	}
	if len(password) < minPasswordLength {
		return apperrors.NewValidationError("password must be at least 6 characters", map[string]any{"field": "password"})
	}
	if len(password) > auth.MaxPasswordBytes {
		return apperrors.NewValidationError("password must be at most 72 bytes", map[string]any{"field": "password"})
	}
	return nil
}
