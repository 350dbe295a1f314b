package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/application"
	"github.com/oksasatya/auth2-service/internal/domain/entity"
	"github.com/oksasatya/auth2-service/pkg/response"
)

const (
	CtxClaimsKey = "claims"
	CtxUserIDKey = "userID"
)

// SessionParser validates session tokens.
type SessionParser interface {
	ParseSession(token string) (*entity.SessionClaims, error)
}

// Authenticate requires an "Authorization: Bearer <session token>" header and
// stores the validated claims in the context. Every failure is the same 401.
func Authenticate(tokens SessionParser, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthenticated(c)
			return
		}
		claims, err := tokens.ParseSession(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(response.RequestIDKey),
				"reason":     err.Error(),
			}).Info("session token rejected")
			unauthenticated(c)
			return
		}
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// RequireRole admits requests whose session role is at least required.
// It must run after Authenticate.
func RequireRole(required entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := application.Authorize(ClaimsFrom(c), required)
		switch err {
		case nil:
			c.Next()
		case application.ErrUnauthenticated:
			unauthenticated(c)
		default:
			response.Fail(c, http.StatusForbidden, application.ErrForbidden.Error())
		}
	}
}

// ClaimsFrom returns the claims set by Authenticate, or nil.
func ClaimsFrom(c *gin.Context) *entity.SessionClaims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*entity.SessionClaims)
	return claims
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	response.Fail(c, http.StatusUnauthorized, application.ErrUnauthenticated.Error())
}
