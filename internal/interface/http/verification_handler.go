package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/application"
	"github.com/oksasatya/auth2-service/pkg/response"
)

type VerificationHandler struct {
	Verification *application.VerificationService
	Logger       logrus.FieldLogger
}

func NewVerificationHandler(v *application.VerificationService, logger logrus.FieldLogger) *VerificationHandler {
	return &VerificationHandler{Verification: v, Logger: logger}
}

// Carriers GET /api/auth/verify/carriers
func (h *VerificationHandler) Carriers(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"carriers": h.Verification.Carriers()}, "ok", nil)
}

// ConfirmEmail GET /api/auth/verify/email/confirm?token=
func (h *VerificationHandler) ConfirmEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		writeError(c, h.Logger, application.ErrInvalidOrExpiredToken)
		return
	}
	if err := h.Verification.ConfirmEmailVerification(c.Request.Context(), token); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "email verified", nil)
}
