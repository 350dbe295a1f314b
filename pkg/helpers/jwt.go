package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
)

// Validation failures. They are kept apart for logging; callers outside the
// token layer must collapse them into one generic "invalid token" answer.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenPurpose   = errors.New("token issued for another purpose")
)

const sessionAudience = "session"

// TokenConfig is the signing configuration shared by session and action tokens.
type TokenConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

// JWTManager issues and validates HS256 session and action tokens.
type JWTManager struct {
	secret     []byte
	issuer     string
	sessionTTL time.Duration
	now        func() time.Time
}

type JWTOption func(*JWTManager)

// WithClock replaces time.Now, for deterministic expiry in tests.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) { m.now = now }
}

func NewJWTManager(cfg TokenConfig, opts ...JWTOption) *JWTManager {
	m := &JWTManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		sessionTTL: cfg.SessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SessionTTL is the lifetime given to every session token.
func (m *JWTManager) SessionTTL() time.Duration { return m.sessionTTL }

type sessionClaims struct {
	Role entity.Role `json:"role"`
	jwt.RegisteredClaims
}

type actionClaims struct {
	Purpose entity.Purpose `json:"pur"`
	Nonce   string         `json:"nonce"`
	jwt.RegisteredClaims
}

// ActionToken is a freshly issued action token together with the nonce the
// store must hold for it to be honoured.
type ActionToken struct {
	Token     string
	Nonce     string
	ExpiresAt time.Time
}

func (m *JWTManager) IssueSession(userID string, role entity.Role) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.sessionTTL)
	claims := &sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

func (m *JWTManager) IssueAction(userID string, purpose entity.Purpose, ttl time.Duration) (ActionToken, error) {
	nonce, err := randomHex(32)
	if err != nil {
		return ActionToken{}, err
	}
	now := m.now()
	exp := now.Add(ttl)
	claims := &actionClaims{
		Purpose: purpose,
		Nonce:   nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return ActionToken{}, err
	}
	return ActionToken{Token: s, Nonce: nonce, ExpiresAt: exp}, nil
}

func (m *JWTManager) ParseSession(tokenStr string) (*entity.SessionClaims, error) {
	claims := &sessionClaims{}
	if err := m.parse(tokenStr, claims, sessionAudience); err != nil {
		return nil, err
	}
	if claims.Subject == "" || claims.IssuedAt == nil || !claims.Role.Valid() {
		return nil, ErrTokenMalformed
	}
	return &entity.SessionClaims{
		UserID:    claims.Subject,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}

func (m *JWTManager) ParseAction(tokenStr string, purpose entity.Purpose) (*entity.ActionClaims, error) {
	claims := &actionClaims{}
	if err := m.parse(tokenStr, claims, string(purpose)); err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrTokenPurpose
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.Nonce == "" {
		return nil, ErrTokenMalformed
	}
	return &entity.ActionClaims{
		UserID:    claims.Subject,
		Purpose:   claims.Purpose,
		Nonce:     claims.Nonce,
		IssuedAt:  claims.IssuedAt.UTC(),
		ExpiresAt: claims.ExpiresAt.UTC(),
	}, nil
}

func (m *JWTManager) parse(tokenStr string, claims jwt.Claims, audience string) error {
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	return classify(err)
}

// classify maps jwt/v5 failures onto the four reasons we log.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrTokenPurpose
	default:
		return ErrTokenMalformed
	}
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
