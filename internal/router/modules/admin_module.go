package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth2-service/internal/domain/entity"
	handlers "github.com/oksasatya/auth2-service/internal/interface/http"
	"github.com/oksasatya/auth2-service/internal/interface/middleware"
)

// AdminModule mounts /admin behind bearer authentication and a minimum role.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Tokens  middleware.SessionParser
	Logger  logrus.FieldLogger
	MinRole entity.Role
	Metrics http.Handler
}

func NewAdminModule(h *handlers.AdminHandler, tokens middleware.SessionParser, logger logrus.FieldLogger, metrics http.Handler) *AdminModule {
	return &AdminModule{Handler: h, Tokens: tokens, Logger: logger, MinRole: entity.RoleAdmin, Metrics: metrics}
}

func (m *AdminModule) Name() string { return "admin" }

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Authenticate(m.Tokens, m.Logger), middleware.RequireRole(m.MinRole))
	{
		admin.GET("/me", m.Handler.Me)
		admin.GET("/users/search", m.Handler.SearchUsers)
		if m.Metrics != nil {
			admin.GET("/metrics", gin.WrapH(m.Metrics))
		}
	}
}
