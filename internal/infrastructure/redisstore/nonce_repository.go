// Package redisstore stores pending action-token nonces with native key expiry.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
)

// compare-and-delete: the key is removed only when it still holds ARGV[1]
var compareAndDeleteScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// client is the subset of *redis.Client the repository uses.
type client interface {
	redis.Scripter
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type NonceRepository struct {
	rdb    client
	prefix string
	now    func() time.Time
}

func NewNonceRepository(rdb client, prefix string) *NonceRepository {
	if prefix == "" {
		prefix = "nonce"
	}
	return &NonceRepository{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *NonceRepository) key(userID string, purpose entity.Purpose) string {
	return r.prefix + ":" + string(purpose) + ":" + userID
}

func (r *NonceRepository) Put(ctx context.Context, userID string, purpose entity.Purpose, nonce string, expiresAt time.Time) error {
	key := r.key(userID, purpose)
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			return oops.In("redis").Code("REDIS_WRITE_FAILED").Wrapf(err, "clear expired nonce")
		}
		return nil
	}
	if err := r.rdb.Set(ctx, key, nonce, ttl).Err(); err != nil {
		return oops.In("redis").Code("REDIS_WRITE_FAILED").With("purpose", purpose).Wrapf(err, "put nonce")
	}
	return nil
}

func (r *NonceRepository) CompareAndClear(ctx context.Context, userID string, purpose entity.Purpose, nonce string) (bool, error) {
	n, err := compareAndDeleteScript.Run(ctx, r.rdb, []string{r.key(userID, purpose)}, nonce).Int64()
	if err != nil {
		return false, oops.In("redis").Code("REDIS_WRITE_FAILED").With("purpose", purpose).Wrapf(err, "consume nonce")
	}
	return n == 1, nil
}

var _ repository.NonceRepository = (*NonceRepository)(nil)
