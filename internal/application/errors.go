package application

import (
	"errors"

	"github.com/oksasatya/auth2-service/pkg/helpers"
)

// Errors returned to callers of the services. They carry no detail about which
// check failed; the reason is logged instead.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrTokenAlreadyUsed      = errors.New("token already used")
	ErrUnauthenticated       = errors.New("unauthenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrHashing               = helpers.ErrHashing
)
