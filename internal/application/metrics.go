package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// authOutcomes counts service operations by operation and result.
	authOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_operations_total",
		Help: "Total number of authentication operations by outcome",
	}, []string{"operation", "result"})

	// tokenRejections counts action or session tokens rejected during validation.
	tokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_rejections_total",
		Help: "Total number of rejected tokens by purpose and reason",
	}, []string{"purpose", "reason"})
)

func recordOutcome(operation string, err error) {
	result := "ok"
	if err != nil {
		result = outcomeLabel(err)
	}
	authOutcomes.WithLabelValues(operation, result).Inc()
}

func outcomeLabel(err error) string {
	switch err {
	case ErrInvalidCredentials:
		return "invalid_credentials"
	case ErrDuplicateEmail:
		return "duplicate_email"
	case ErrEmailNotVerified:
		return "email_not_verified"
	case ErrInvalidOrExpiredToken:
		return "invalid_token"
	case ErrTokenAlreadyUsed:
		return "token_used"
	default:
		return "error"
	}
}
