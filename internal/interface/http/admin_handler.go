package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/application"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	"github.com/oksasatya/auth2-service/internal/interface/middleware"
	"github.com/oksasatya/auth2-service/pkg/response"
)

type AdminHandler struct {
	Index  repository.UserIndex // nil when search is not configured
	Logger logrus.FieldLogger
}

func NewAdminHandler(index repository.UserIndex, logger logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{Index: index, Logger: logger}
}

// Me GET /api/admin/me
func (h *AdminHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		writeError(c, h.Logger, application.ErrUnauthenticated)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user_id":    claims.UserID,
		"role":       claims.Role.String(),
		"issued_at":  claims.IssuedAt,
		"expires_at": claims.ExpiresAt,
	}, "ok", nil)
}

// SearchUsers GET /api/admin/users/search?q=&size=
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Invalid(c, gin.H{"q": "is required"})
		return
	}
	if h.Index == nil {
		response.Success(c, http.StatusOK, []map[string]any{}, "search disabled", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Index.Search(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "ok", gin.H{"count": len(hits)})
}
