package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/auth2-service/internal/interface/http"
)

// AuthModule exposes the public credential and verification routes.
type AuthModule struct {
	Auth   *handlers.AuthHandler
	Verify *handlers.VerificationHandler
}

func NewAuthModule(auth *handlers.AuthHandler, verify *handlers.VerificationHandler) *AuthModule {
	return &AuthModule{Auth: auth, Verify: verify}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", m.Auth.Login)
		auth.POST("/register", m.Auth.Register)
		auth.POST("/password/reset-request", m.Auth.RequestReset)
		auth.POST("/password/reset", m.Auth.ResetPassword)

		auth.GET("/verify/carriers", m.Verify.Carriers)
		auth.GET("/verify/email/confirm", m.Verify.ConfirmEmail)
	}
}
