package application

import "github.com/oksasatya/auth2-service/internal/domain/entity"

// Authorize admits claims whose role is at least required.
// It is pure: the role comes from the already validated session claims.
func Authorize(claims *entity.SessionClaims, required entity.Role) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	if !claims.Role.AtLeast(required) {
		return ErrForbidden
	}
	return nil
}
