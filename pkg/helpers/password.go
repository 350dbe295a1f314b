package helpers

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrHashing is returned when a digest cannot be produced (entropy or resource exhaustion).
	ErrHashing = errors.New("password hashing failed")
	// ErrMalformedDigest is returned by Verify for digests it cannot parse.
	ErrMalformedDigest = errors.New("malformed password digest")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	// Verify returns (false, nil) on mismatch and an error only for unusable digests.
	Verify(ctx context.Context, plain, digest string) (bool, error)
	// NeedsUpgrade reports whether digest was produced by an older scheme or weaker parameters.
	NeedsUpgrade(digest string) bool
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
}

// DefaultArgon2Params follows the OWASP argon2id baseline (64 MiB, t=1, p=4).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}
}

// Argon2idHasher implements PasswordHasher with argon2id and accepts legacy bcrypt digests.
// At most `concurrency` hashes run at once; each one holds MemoryKiB of RAM.
type Argon2idHasher struct {
	params Argon2Params
	sem    *semaphore.Weighted
}

func NewArgon2idHasher(params Argon2Params, concurrency int64) *Argon2idHasher {
	if params.SaltLen == 0 {
		params.SaltLen = 16
	}
	if params.KeyLen == 0 {
		params.KeyLen = 32
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Argon2idHasher{params: params, sem: semaphore.NewWeighted(concurrency)}
}

// Hash produces a PHC-encoded argon2id digest:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(ctx context.Context, plain string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("HASH_SALT_FAILED").Wrapf(errors.Join(ErrHashing, err), "read salt")
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("HASH_SLOT_UNAVAILABLE").Wrapf(errors.Join(ErrHashing, err), "acquire hashing slot")
	}
	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	h.sem.Release(1)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(ctx context.Context, plain, digest string) (bool, error) {
	if isBcrypt(digest) {
		err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, errors.Join(ErrMalformedDigest, err)
		}
	}

	p, salt, expected, err := decodeArgon2id(digest)
	if err != nil {
		return false, err
	}
	if !h.affordable(p) {
		return false, ErrMalformedDigest
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code("HASH_SLOT_UNAVAILABLE").Wrapf(errors.Join(ErrHashing, err), "acquire hashing slot")
	}
	computed := argon2.IDKey([]byte(plain), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(expected)))
	h.sem.Release(1)

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func (h *Argon2idHasher) NeedsUpgrade(digest string) bool {
	if !strings.HasPrefix(digest, "$argon2id$") {
		return true
	}
	p, _, _, err := decodeArgon2id(digest)
	if err != nil {
		return true
	}
	return p.MemoryKiB < h.params.MemoryKiB || p.Time < h.params.Time
}

// maxCostFactor bounds how far a stored digest's memory and time may exceed
// the configured parameters before Verify refuses to run it.
const maxCostFactor = 4

func (h *Argon2idHasher) affordable(p Argon2Params) bool {
	return uint64(p.MemoryKiB) <= maxCostFactor*uint64(h.params.MemoryKiB) &&
		uint64(p.Time) <= maxCostFactor*uint64(h.params.Time)
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") || strings.HasPrefix(digest, "$2b$") || strings.HasPrefix(digest, "$2y$")
}

func decodeArgon2id(digest string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, ErrMalformedDigest
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &threads); err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	if threads == 0 || threads > 255 || p.Time == 0 {
		return p, nil, nil, ErrMalformedDigest
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, ErrMalformedDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1024 {
		return p, nil, nil, ErrMalformedDigest
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	return p, salt, key, nil
}
