package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/application"
	"github.com/oksasatya/auth2-service/pkg/helpers"
	"github.com/oksasatya/auth2-service/pkg/response"
	"github.com/oksasatya/auth2-service/pkg/validation"
)

const internalMessage = "internal server error"

// statusFor maps service errors to a status and a fixed, non-enumerating message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, application.ErrInvalidCredentials.Error()
	case errors.Is(err, application.ErrDuplicateEmail):
		return http.StatusConflict, application.ErrDuplicateEmail.Error()
	case errors.Is(err, application.ErrEmailNotVerified):
		return http.StatusForbidden, application.ErrEmailNotVerified.Error()
	case errors.Is(err, application.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, application.ErrInvalidOrExpiredToken.Error()
	case errors.Is(err, application.ErrTokenAlreadyUsed):
		return http.StatusConflict, application.ErrTokenAlreadyUsed.Error()
	case errors.Is(err, application.ErrUnauthenticated):
		return http.StatusUnauthorized, application.ErrUnauthenticated.Error()
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, application.ErrForbidden.Error()
	default:
		return http.StatusInternalServerError, internalMessage
	}
}

func writeError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString(response.RequestIDKey),
			"route":      c.FullPath(),
		})
	}
	response.Fail(c, status, msg)
}

func writeBindError(c *gin.Context, err error) {
	response.Invalid(c, validation.ToDetails(err))
}
