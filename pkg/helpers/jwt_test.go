package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestJWT(secret string) (*JWTManager, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	m := NewJWTManager(TokenConfig{Secret: secret, Issuer: "test", SessionTTL: 24 * time.Hour}, WithClock(clock.Now))
	return m, clock
}

func TestJWTManager_SessionRoundTrip(t *testing.T) {
	m, clock := newTestJWT("super-secret")

	tok, exp, err := m.IssueSession("user-123", entity.RoleBasic)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), exp)

	claims, err := m.ParseSession(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, entity.RoleBasic, claims.Role)
	assert.True(t, exp.Equal(claims.ExpiresAt))
}

func TestJWTManager_SessionExpired(t *testing.T) {
	m, clock := newTestJWT("secret")

	tok, _, err := m.IssueSession("u1", entity.RoleAdmin)
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	claims, err := m.ParseSession(tok)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	issuer, _ := newTestJWT("right-secret")
	verifier, _ := newTestJWT("wrong-secret")

	tok, _, err := issuer.IssueSession("u2", entity.RoleBasic)
	require.NoError(t, err)

	_, err = verifier.ParseSession(tok)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestJWTManager_TamperedPayload(t *testing.T) {
	m, _ := newTestJWT("secret")

	tok, _, err := m.IssueSession("u3", entity.RoleBasic)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, _, err := NewJWTManager(TokenConfig{Secret: "other", Issuer: "test", SessionTTL: time.Hour}).
		IssueSession("u3", entity.RoleSuperAdmin)
	require.NoError(t, err)
	// keep the original signature, swap in an escalated payload
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, err = m.ParseSession(tampered)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestJWTManager_Malformed(t *testing.T) {
	m, _ := newTestJWT("k")

	for _, tok := range []string{"", "not.a.jwt", "abc"} {
		_, err := m.ParseSession(tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, tok)
	}
}

func TestJWTManager_ActionRoundTrip(t *testing.T) {
	m, clock := newTestJWT("secret")

	at, err := m.IssueAction("u4", entity.PurposePasswordReset, 30*time.Minute)
	require.NoError(t, err)
	assert.Len(t, at.Nonce, 64)
	assert.Equal(t, clock.Now().Add(30*time.Minute), at.ExpiresAt)

	claims, err := m.ParseAction(at.Token, entity.PurposePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "u4", claims.UserID)
	assert.Equal(t, at.Nonce, claims.Nonce)
	assert.Equal(t, entity.PurposePasswordReset, claims.Purpose)
}

func TestJWTManager_ActionNonceIsFreshPerIssue(t *testing.T) {
	m, _ := newTestJWT("secret")

	a, err := m.IssueAction("u", entity.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	b, err := m.IssueAction("u", entity.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestJWTManager_ActionPurposeBinding(t *testing.T) {
	m, _ := newTestJWT("secret")

	at, err := m.IssueAction("u5", entity.PurposeEmailVerification, time.Hour)
	require.NoError(t, err)

	_, err = m.ParseAction(at.Token, entity.PurposePasswordReset)
	assert.ErrorIs(t, err, ErrTokenPurpose)

	_, err = m.ParseSession(at.Token)
	assert.ErrorIs(t, err, ErrTokenPurpose, "action tokens are not sessions")

	session, _, err := m.IssueSession("u5", entity.RoleBasic)
	require.NoError(t, err)
	_, err = m.ParseAction(session, entity.PurposeEmailVerification)
	assert.ErrorIs(t, err, ErrTokenPurpose, "sessions are not action tokens")
}

func TestJWTManager_ActionExpired(t *testing.T) {
	m, clock := newTestJWT("secret")

	at, err := m.IssueAction("u6", entity.PurposePasswordReset, 15*time.Minute)
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	_, err = m.ParseAction(at.Token, entity.PurposePasswordReset)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestJWTManager_ForeignIssuerRejected(t *testing.T) {
	m, _ := newTestJWT("secret")
	other := NewJWTManager(TokenConfig{Secret: "secret", Issuer: "someone-else", SessionTTL: time.Hour})

	tok, _, err := other.IssueSession("u7", entity.RoleBasic)
	require.NoError(t, err)

	_, err = m.ParseSession(tok)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}
