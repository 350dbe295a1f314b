package entity

import "time"

// Purpose binds an action token to exactly one state change.
type Purpose string

const (
	PurposePasswordReset     Purpose = "password_reset"
	PurposeEmailVerification Purpose = "email_verification"
)

func (p Purpose) Valid() bool {
	return p == PurposePasswordReset || p == PurposeEmailVerification
}

// SessionClaims is the validated content of a session bearer token.
type SessionClaims struct {
	UserID    string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ActionClaims is the validated content of a single-use action token.
type ActionClaims struct {
	UserID    string
	Purpose   Purpose
	Nonce     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
