package domain

import "time"

// TokenPurpose separates session tokens from password reset tokens.
type TokenPurpose string

const (
	TokenPurposeSession       TokenPurpose = "session"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// Session is the verified claim attached to an authenticated request.
type Session struct {
	UserID    int64
	Name      string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ResetGrant is the verified content of a password reset token.
type ResetGrant struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}
