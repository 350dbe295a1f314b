package router

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/auth2-service/internal/application"
	"github.com/oksasatya/auth2-service/internal/container"
	"github.com/oksasatya/auth2-service/internal/domain/repository"
	pginfra "github.com/oksasatya/auth2-service/internal/infrastructure/postgres"
	"github.com/oksasatya/auth2-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/auth2-service/internal/infrastructure/search"
	handlers "github.com/oksasatya/auth2-service/internal/interface/http"
	"github.com/oksasatya/auth2-service/internal/router/modules"
)

// Deps are the stores the services run on.
type Deps struct {
	Users  repository.UserRepository
	Nonces repository.NonceRepository
	Index  repository.UserIndex // nil disables search
}

// depsFromContainer picks the store implementations configured for this process.
func depsFromContainer() Deps {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	d := Deps{
		Users:  pginfra.NewUserRepository(pool),
		Nonces: pginfra.NewNonceRepository(pool),
	}
	if cfg.NonceBackend == "redis" {
		d.Nonces = redisstore.NewNonceRepository(container.GetRedis(), "nonce")
	}
	if es := container.GetES(); es != nil {
		d.Index = search.NewUserIndex(es, cfg.ESUsersIndex)
	}
	return d
}

// BuildModules wires services, handlers and modules on top of d.
func BuildModules(d Deps) []Module {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	tokens := container.GetJWT()
	hasher := container.GetHasher()
	notifier := container.GetNotifier()

	verify := application.NewVerificationService(
		d.Users, d.Nonces, tokens, notifier, d.Index, logger,
		cfg.VerifyTokenTTL, cfg.VerifyEmailURL, cfg.CarrierList(),
	)
	auth := application.NewAuthService(
		d.Users, hasher, tokens, verify, d.Index, logger,
		cfg.RequireVerifiedEmailToLogin,
	)
	reset := application.NewPasswordResetService(
		d.Users, d.Nonces, hasher, tokens, notifier, logger,
		cfg.ResetTokenTTL, cfg.ResetPasswordURL,
	)

	return []Module{
		modules.NewAuthModule(
			handlers.NewAuthHandler(auth, reset, logger),
			handlers.NewVerificationHandler(verify, logger),
		),
		modules.NewAdminModule(
			handlers.NewAdminHandler(d.Index, logger),
			tokens, logger, promhttp.Handler(),
		),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	for _, m := range BuildModules(depsFromContainer()) {
		r.Add(m)
	}
}
