// Package memory holds in-process implementations of the credential store.
// They honour the same atomicity contracts as the Postgres and Redis stores
// and back the service tests and local runs without infrastructure.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
)

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*entity.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]*entity.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := entity.NormalizeEmail(u.Email)
	if _, exists := r.byEmail[email]; exists {
		return repository.ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := r.now().UTC()
	u.Email = email
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	r.byID[u.ID] = &stored
	r.byEmail[email] = u.ID
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[entity.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *entity.User) { u.PasswordHash = passwordHash })
}

func (r *UserRepository) SetEmailVerified(_ context.Context, id string) error {
	return r.mutate(id, func(u *entity.User) { u.EmailVerified = true })
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role entity.Role) error {
	return r.mutate(id, func(u *entity.User) { u.Role = role })
}

func (r *UserRepository) mutate(id string, fn func(u *entity.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = r.now().UTC()
	return nil
}

type pendingNonce struct {
	nonce     string
	expiresAt time.Time
}

type nonceKey struct {
	userID  string
	purpose entity.Purpose
}

type NonceRepository struct {
	mu      sync.Mutex
	pending map[nonceKey]pendingNonce
	now     func() time.Time
}

func NewNonceRepository() *NonceRepository {
	return &NonceRepository{pending: make(map[nonceKey]pendingNonce), now: time.Now}
}

// WithClock replaces time.Now for expiry checks.
func (r *NonceRepository) WithClock(now func() time.Time) *NonceRepository {
	r.now = now
	return r
}

func (r *NonceRepository) Put(_ context.Context, userID string, purpose entity.Purpose, nonce string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for k, p := range r.pending {
		if k.userID == userID && !now.Before(p.expiresAt) {
			delete(r.pending, k)
		}
	}
	r.pending[nonceKey{userID, purpose}] = pendingNonce{nonce: nonce, expiresAt: expiresAt}
	return nil
}

func (r *NonceRepository) CompareAndClear(_ context.Context, userID string, purpose entity.Purpose, nonce string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := nonceKey{userID, purpose}
	p, ok := r.pending[key]
	if !ok || p.nonce != nonce || !r.now().Before(p.expiresAt) {
		return false, nil
	}
	delete(r.pending, key)
	return true, nil
}

// Pending reports whether a nonce is currently stored for userID and purpose.
func (r *NonceRepository) Pending(userID string, purpose entity.Purpose) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[nonceKey{userID, purpose}]
	return p.nonce, ok
}

var (
	_ repository.UserRepository  = (*UserRepository)(nil)
	_ repository.NonceRepository = (*NonceRepository)(nil)
)
