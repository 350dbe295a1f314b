package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	"github.com/oksasatya/auth2-service/pkg/helpers"
)

type VerificationService struct {
	Users    repository.UserRepository
	Nonces   repository.NonceRepository
	Tokens   *helpers.JWTManager
	Notifier Notifier
	Index    repository.UserIndex
	Logger   logrus.FieldLogger

	TTL       time.Duration
	VerifyURL string

	carriers []string
}

func NewVerificationService(
	users repository.UserRepository,
	nonces repository.NonceRepository,
	tokens *helpers.JWTManager,
	notifier Notifier,
	index repository.UserIndex,
	logger logrus.FieldLogger,
	ttl time.Duration,
	verifyURL string,
	carriers []string,
) *VerificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VerificationService{
		Users:     users,
		Nonces:    nonces,
		Tokens:    tokens,
		Notifier:  notifier,
		Index:     index,
		Logger:    logger,
		TTL:       ttl,
		VerifyURL: verifyURL,
		carriers:  append([]string(nil), carriers...),
	}
}

// Carriers returns the supported SMS carriers in display order.
func (s *VerificationService) Carriers() []string {
	return append([]string(nil), s.carriers...)
}

// SendEmailVerification issues a fresh verification token for u, superseding any pending one.
func (s *VerificationService) SendEmailVerification(ctx context.Context, u *entity.User) error {
	tok, err := s.Tokens.IssueAction(u.ID, entity.PurposeEmailVerification, s.TTL)
	if err != nil {
		return err
	}
	if err := s.Nonces.Put(ctx, u.ID, entity.PurposeEmailVerification, tok.Nonce, tok.ExpiresAt); err != nil {
		return err
	}
	payload := map[string]any{
		"email":       u.Email,
		"link":        actionLink(s.VerifyURL, tok.Token),
		"expires_at":  tok.ExpiresAt.Format(time.RFC3339),
		"ttl_minutes": int(s.TTL / time.Minute),
	}
	return s.Notifier.Send(ctx, u.Email, NotifyVerifyEmail, payload)
}

// ConfirmEmailVerification consumes a verification token. A token that was
// already consumed fails with ErrTokenAlreadyUsed even if the account is verified.
func (s *VerificationService) ConfirmEmailVerification(ctx context.Context, token string) (err error) {
	defer func() { recordOutcome("verify_email", err) }()

	claims, err := s.Tokens.ParseAction(token, entity.PurposeEmailVerification)
	if err != nil {
		reason := tokenReason(err)
		tokenRejections.WithLabelValues(string(entity.PurposeEmailVerification), reason).Inc()
		s.Logger.WithField("reason", reason).Info("verification token rejected")
		return ErrInvalidOrExpiredToken
	}

	consumed, err := s.Nonces.CompareAndClear(ctx, claims.UserID, entity.PurposeEmailVerification, claims.Nonce)
	if err != nil {
		helpers.LogError(s.Logger, "consume verification nonce failed", err, logrus.Fields{"user_id": claims.UserID})
		return err
	}
	if !consumed {
		tokenRejections.WithLabelValues(string(entity.PurposeEmailVerification), "consumed").Inc()
		return ErrTokenAlreadyUsed
	}

	if err := s.Users.SetEmailVerified(ctx, claims.UserID); err != nil {
		helpers.LogError(s.Logger, "mark email verified failed", err, logrus.Fields{"user_id": claims.UserID})
		return err
	}
	s.Logger.WithField("user_id", claims.UserID).Info("email verified")

	if s.Index != nil {
		if u, err := s.Users.GetByID(ctx, claims.UserID); err == nil {
			if err := s.Index.Index(ctx, u); err != nil {
				helpers.LogWarn(s.Logger, "reindex user failed", err, logrus.Fields{"user_id": u.ID})
			}
		}
	}
	return nil
}
