package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

// PasswordResetService moves a user between "no reset requested" and "reset
// pending". The pending state is the nonce stored for PurposePasswordReset.
type PasswordResetService struct {
	Users    repository.UserRepository
	Nonces   repository.NonceRepository
	Hasher   helpers.PasswordHasher
	Tokens   *helpers.JWTManager
	Notifier Notifier
	Logger   logrus.FieldLogger

	TTL      time.Duration
	ResetURL string
}

func NewPasswordResetService(
	users repository.UserRepository,
	nonces repository.NonceRepository,
	hasher helpers.PasswordHasher,
	tokens *helpers.JWTManager,
	notifier Notifier,
	logger logrus.FieldLogger,
	ttl time.Duration,
	resetURL string,
) *PasswordResetService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PasswordResetService{
		Users:    users,
		Nonces:   nonces,
		Hasher:   hasher,
		Tokens:   tokens,
		Notifier: notifier,
		Logger:   logger,
		TTL:      ttl,
		ResetURL: resetURL,
	}
}

// RequestReset returns nil for unknown emails without issuing anything.
// Unverified accounts get ErrEmailNotVerified.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (err error) {
	defer func() { recordOutcome("reset_request", err) }()

	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.WithField("reason", "unknown_email").Info("password reset requested for unknown email")
		} else {
			helpers.LogError(s.Logger, "lookup user for reset failed", err, nil)
		}
		return nil
	}
	if !u.EmailVerified {
		return ErrEmailNotVerified
	}

	tok, err := s.Tokens.IssueAction(u.ID, entity.PurposePasswordReset, s.TTL)
	if err != nil {
		helpers.LogError(s.Logger, "issue reset token failed", err, logrus.Fields{"user_id": u.ID})
		return err
	}
	if err := s.Nonces.Put(ctx, u.ID, entity.PurposePasswordReset, tok.Nonce, tok.ExpiresAt); err != nil {
		helpers.LogError(s.Logger, "store reset nonce failed", err, logrus.Fields{"user_id": u.ID})
		return err
	}

	payload := map[string]any{
		"email":       u.Email,
		"link":        actionLink(s.ResetURL, tok.Token),
		"expires_at":  tok.ExpiresAt.Format(time.RFC3339),
		"ttl_minutes": int(s.TTL / time.Minute),
	}
	if err := s.Notifier.Send(ctx, u.Email, NotifyForgotPassword, payload); err != nil {
		// the pending nonce stays; a later request supersedes it
		helpers.LogWarn(s.Logger, "send reset notification failed", err, logrus.Fields{"user_id": u.ID})
	}
	s.Logger.WithField("user_id", u.ID).Info("password reset requested")
	return nil
}

// ResetPassword consumes a reset token and replaces the password digest.
// It does not issue a session.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) (err error) {
	defer func() { recordOutcome("reset_password", err) }()

	claims, err := s.Tokens.ParseAction(token, entity.PurposePasswordReset)
	if err != nil {
		reason := tokenReason(err)
		tokenRejections.WithLabelValues(string(entity.PurposePasswordReset), reason).Inc()
		s.Logger.WithField("reason", reason).Info("reset token rejected")
		return ErrInvalidOrExpiredToken
	}

	digest, err := s.Hasher.Hash(ctx, newPassword)
	if err != nil {
		helpers.LogError(s.Logger, "hash new password failed", err, logrus.Fields{"user_id": claims.UserID})
		return ErrHashing
	}

	consumed, err := s.Nonces.CompareAndClear(ctx, claims.UserID, entity.PurposePasswordReset, claims.Nonce)
	if err != nil {
		helpers.LogError(s.Logger, "consume reset nonce failed", err, logrus.Fields{"user_id": claims.UserID})
		return err
	}
	if !consumed {
		tokenRejections.WithLabelValues(string(entity.PurposePasswordReset), "consumed").Inc()
		return ErrTokenAlreadyUsed
	}

	if err := s.Users.UpdatePassword(ctx, claims.UserID, digest); err != nil {
		// nonce is already spent; the user has to request a new reset
		helpers.LogError(s.Logger, "update password after reset failed", err, logrus.Fields{"user_id": claims.UserID})
		return err
	}
	s.Logger.WithField("user_id", claims.UserID).Info("password reset completed")
	return nil
}
