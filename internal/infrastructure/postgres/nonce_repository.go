package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
)

type NonceRepository struct {
	db DBTX
}

func NewNonceRepository(db DBTX) *NonceRepository {
	return &NonceRepository{db: db}
}

// Put supersedes the pending nonce for (userID, purpose) and drops the user's
// other nonces that have already expired.
func (r *NonceRepository) Put(ctx context.Context, userID string, purpose entity.Purpose, nonce string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		WITH purged AS (
			DELETE FROM action_nonces
			WHERE user_id = $1 AND purpose <> $2 AND expires_at <= now()
		)
		INSERT INTO action_nonces (user_id, purpose, nonce, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, purpose)
		DO UPDATE SET nonce = EXCLUDED.nonce, expires_at = EXCLUDED.expires_at, created_at = now()
	`, userID, string(purpose), nonce, expiresAt)
	if err != nil {
		return dbErr("put nonce", err)
	}
	return nil
}

// CompareAndClear relies on the row lock taken by DELETE: of two concurrent
// callers presenting the same nonce only one sees a deleted row.
func (r *NonceRepository) CompareAndClear(ctx context.Context, userID string, purpose entity.Purpose, nonce string) (bool, error) {
	res, err := r.db.Exec(ctx, `
		DELETE FROM action_nonces
		WHERE user_id = $1 AND purpose = $2 AND nonce = $3 AND expires_at > now()
	`, userID, string(purpose), nonce)
	if err != nil {
		return false, dbErr("consume nonce", err)
	}
	return res.RowsAffected() == 1, nil
}

var _ repository.NonceRepository = (*NonceRepository)(nil)
