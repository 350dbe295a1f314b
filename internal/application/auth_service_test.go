package application

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

func TestAuthService_AliceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBasic, u.Role)
	assert.False(t, u.EmailVerified)

	res, err := f.auth.Login(ctx, "alice@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(time.Hour), res.ExpiresAt)

	claims, err := f.tokens.ParseSession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, entity.MinRole, claims.Role)

	assert.ErrorIs(t, Authorize(claims, entity.RoleAdmin), ErrForbidden)
	assert.NoError(t, Authorize(claims, entity.RoleBasic))
}

func TestAuthService_RegisterNormalizesAndSendsVerification(t *testing.T) {
	f := newFixture(t)

	u, err := f.auth.Register(context.Background(), "  Bob@Example.COM ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", u.Email)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))

	msgs := f.notifier.messages(NotifyVerifyEmail)
	require.Len(t, msgs, 1)
	assert.Equal(t, "bob@example.com", msgs[0].To)

	_, pending := f.nonces.Pending(u.ID, entity.PurposeEmailVerification)
	assert.True(t, pending)
}

func TestAuthService_RegisterSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errNotifierDown

	_, err := f.auth.Register(context.Background(), "carol@example.com", "secret")
	require.NoError(t, err)

	var warned bool
	for _, e := range f.logs.AllEntries() {
		if e.Message == "send verification email failed" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestAuthService_RegisterDuplicateCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "dave@example.com", "one")
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, "DAVE@example.com", "two")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestAuthService_RegisterConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.auth.Register(context.Background(), "race@example.com", "pw")
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, ErrDuplicateEmail):
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)
}

func TestAuthService_LoginDoesNotEnumerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "erin@example.com", "right")
	require.NoError(t, err)

	_, unknownErr := f.auth.Login(ctx, "nobody@example.com", "right")
	_, wrongErr := f.auth.Login(ctx, "erin@example.com", "wrong")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestAuthService_LoginNeverLogsPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "frank@example.com", "hunter2-secret")
	require.NoError(t, err)

	_, _ = f.auth.Login(ctx, "frank@example.com", "hunter2-wrong")
	_, _ = f.auth.Login(ctx, "ghost@example.com", "hunter2-wrong")

	for _, e := range f.logs.AllEntries() {
		line, err := e.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "hunter2")
	}
}

func TestAuthService_RequireVerifiedEmail(t *testing.T) {
	f := newFixture(t)
	f.auth.RequireVerifiedEmail = true
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "gina@example.com", "pw")
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "gina@example.com", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "password is checked before verification status")

	_, err = f.auth.Login(ctx, "gina@example.com", "pw")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, f.verify.ConfirmEmailVerification(ctx, f.notifier.lastToken(t, NotifyVerifyEmail)))
	_, err = f.auth.Login(ctx, "gina@example.com", "pw")
	assert.NoError(t, err)
}

func TestAuthService_LoginUpgradesLegacyDigest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{Email: "hank@example.com", PasswordHash: string(legacy), Role: entity.RoleBasic}
	require.NoError(t, f.users.Create(ctx, u))

	_, err = f.auth.Login(ctx, "hank@example.com", "legacy-pw")
	require.NoError(t, err)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = f.auth.Login(ctx, "hank@example.com", "legacy-pw")
	assert.NoError(t, err)
}

func TestAuthService_LoginMalformedDigestIsInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &entity.User{Email: "ivy@example.com", PasswordHash: "$argon2id$garbage", Role: entity.RoleBasic}))

	_, err := f.auth.Login(ctx, "ivy@example.com", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginSessionExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "jack@example.com", "pw")
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, "jack@example.com", "pw")
	require.NoError(t, err)

	f.clock.Advance(time.Hour + time.Second)
	claims, err := f.tokens.ParseSession(res.Token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestAuthService_LoginMetrics(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(authOutcomes.WithLabelValues("login", "invalid_credentials"))

	_, _ = f.auth.Login(context.Background(), "nobody@example.com", "pw")

	after := testutil.ToFloat64(authOutcomes.WithLabelValues("login", "invalid_credentials"))
	assert.Equal(t, before+1, after)
}

// countingHasher counts Verify calls and can fail the first Hash.
type countingHasher struct {
	helpers.PasswordHasher
	verifies      atomic.Int32
	hashes        atomic.Int32
	failFirstHash bool
}

func (h *countingHasher) Hash(ctx context.Context, plain string) (string, error) {
	if h.hashes.Add(1) == 1 && h.failFirstHash {
		return "", helpers.ErrHashing
	}
	return h.PasswordHasher.Hash(ctx, plain)
}

func (h *countingHasher) Verify(ctx context.Context, plain, digest string) (bool, error) {
	h.verifies.Add(1)
	return h.PasswordHasher.Verify(ctx, plain, digest)
}

func TestAuthService_UnknownEmailAlwaysVerifiesOnce(t *testing.T) {
	tests := []struct {
		name          string
		failFirstHash bool
		firstCtx      func() context.Context
	}{
		{
			name: "first request cancelled",
			firstCtx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
		},
		{
			name:          "first dummy hash fails",
			failFirstHash: true,
			firstCtx:      context.Background,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			hasher := &countingHasher{PasswordHasher: f.hasher, failFirstHash: tt.failFirstHash}
			auth := NewAuthService(f.users, hasher, f.tokens, nil, nil, f.auth.Logger, false)

			_, err := auth.Login(tt.firstCtx(), "ghost@example.com", "whatever")
			assert.ErrorIs(t, err, ErrInvalidCredentials)

			for _, email := range []string{"ghost2@example.com", "ghost3@example.com"} {
				before := hasher.verifies.Load()
				_, err = auth.Login(context.Background(), email, "whatever")
				assert.ErrorIs(t, err, ErrInvalidCredentials)
				assert.Equal(t, int32(1), hasher.verifies.Load()-before, email)
			}
		})
	}
}
