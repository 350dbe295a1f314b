package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserRepository defines the credential store operations.
// Email uniqueness is enforced by the store itself; Create reports it as ErrDuplicateEmail.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdateRole(ctx context.Context, id string, role entity.Role) error
}

// NonceRepository keeps the single currently valid nonce per user and purpose.
type NonceRepository interface {
	// Put stores nonce as the only pending nonce for (userID, purpose), superseding any earlier one.
	Put(ctx context.Context, userID string, purpose entity.Purpose, nonce string, expiresAt time.Time) error

	// CompareAndClear atomically removes the pending nonce if it equals nonce and has not expired.
	// It returns false when nothing matched.
	CompareAndClear(ctx context.Context, userID string, purpose entity.Purpose, nonce string) (bool, error)
}

// UserIndex is a searchable projection of users for administrative lookups.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, query string, size int) ([]map[string]any, error)
}
