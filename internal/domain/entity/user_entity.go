package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the credential store.
// PasswordHash holds an argon2id PHC string (legacy rows may still carry bcrypt).
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
