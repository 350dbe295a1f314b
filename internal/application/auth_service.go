package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

// dummyPassword is hashed once and verified against when the account does not
// exist, so unknown and known emails cost the same argon2 work.
const dummyPassword = "not-a-real-password"

type AuthService struct {
	Users        repository.UserRepository
	Hasher       helpers.PasswordHasher
	Tokens       *helpers.JWTManager
	Verification *VerificationService
	Index        repository.UserIndex
	Logger       logrus.FieldLogger

	// RequireVerifiedEmail rejects logins of accounts whose email is not verified.
	RequireVerifiedEmail bool

	dummyMu     sync.Mutex
	dummyDigest string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

func NewAuthService(
	users repository.UserRepository,
	hasher helpers.PasswordHasher,
	tokens *helpers.JWTManager,
	verification *VerificationService,
	index repository.UserIndex,
	logger logrus.FieldLogger,
	requireVerifiedEmail bool,
) *AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		Users:                users,
		Hasher:               hasher,
		Tokens:               tokens,
		Verification:         verification,
		Index:                index,
		Logger:               logger,
		RequireVerifiedEmail: requireVerifiedEmail,
	}
}

// Register creates a basic account. It never issues a session; the caller logs in separately.
func (s *AuthService) Register(ctx context.Context, email, password string) (u *entity.User, err error) {
	defer func() { recordOutcome("register", err) }()

	email = entity.NormalizeEmail(email)
	digest, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		helpers.LogError(s.Logger, "hash password failed", err, logrus.Fields{"op": "register"})
		return nil, ErrHashing
	}

	u = &entity.User{Email: email, PasswordHash: digest, Role: entity.MinRole}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		helpers.LogError(s.Logger, "create user failed", err, nil)
		return nil, err
	}

	s.Logger.WithField("user_id", u.ID).Info("user registered")

	if s.Verification != nil {
		if err := s.Verification.SendEmailVerification(ctx, u); err != nil {
			helpers.LogWarn(s.Logger, "send verification email failed", err, logrus.Fields{"user_id": u.ID})
		}
	}
	s.index(ctx, u)
	return u, nil
}

// Login verifies credentials and issues a session token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { recordOutcome("login", err) }()

	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			helpers.LogError(s.Logger, "lookup user failed", err, logrus.Fields{"op": "login"})
			return nil, err
		}
		s.burnDummyVerify(ctx, password)
		s.Logger.WithField("reason", "unknown_email").Debug("login rejected")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.Hasher.Verify(ctx, password, u.PasswordHash)
	if err != nil {
		if !errors.Is(err, helpers.ErrMalformedDigest) {
			helpers.LogError(s.Logger, "verify password failed", err, logrus.Fields{"user_id": u.ID})
			return nil, ErrHashing
		}
		helpers.LogWarn(s.Logger, "stored digest unusable", err, logrus.Fields{"user_id": u.ID})
		ok = false
	}
	if !ok {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "reason": "wrong_password"}).Debug("login rejected")
		return nil, ErrInvalidCredentials
	}

	if s.RequireVerifiedEmail && !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if s.Hasher.NeedsUpgrade(u.PasswordHash) {
		s.upgradeDigest(ctx, u, password)
	}

	token, exp, err := s.Tokens.IssueSession(u.ID, u.Role)
	if err != nil {
		helpers.LogError(s.Logger, "issue session token failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *AuthService) burnDummyVerify(ctx context.Context, password string) {
	if digest := s.dummy(); digest != "" {
		_, _ = s.Hasher.Verify(ctx, password, digest)
		return
	}
	// no dummy digest yet: hashing costs the same argon2 work as a verify
	_, _ = s.Hasher.Hash(ctx, password)
}

// dummy returns the digest unknown-email logins verify against. It is built
// detached from any request and retried on later calls until it succeeds.
func (s *AuthService) dummy() string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyDigest != "" {
		return s.dummyDigest
	}
	d, err := s.Hasher.Hash(context.Background(), dummyPassword)
	if err != nil {
		helpers.LogWarn(s.Logger, "prepare dummy digest failed", err, nil)
		return ""
	}
	s.dummyDigest = d
	return d
}

// upgradeDigest rehashes a legacy or weaker digest after a successful login.
// Failure leaves the old digest in place.
func (s *AuthService) upgradeDigest(ctx context.Context, u *entity.User, password string) {
	digest, err := s.Hasher.Hash(ctx, password)
	if err != nil {
		helpers.LogWarn(s.Logger, "rehash password failed", err, logrus.Fields{"user_id": u.ID})
		return
	}
	if err := s.Users.UpdatePassword(ctx, u.ID, digest); err != nil {
		helpers.LogWarn(s.Logger, "store upgraded digest failed", err, logrus.Fields{"user_id": u.ID})
		return
	}
	u.PasswordHash = digest
	s.Logger.WithField("user_id", u.ID).Info("password digest upgraded")
}

func (s *AuthService) index(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		helpers.LogWarn(s.Logger, "index user failed", err, logrus.Fields{"user_id": u.ID})
	}
}
