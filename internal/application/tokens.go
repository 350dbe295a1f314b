package application

import (
	"errors"
	"net/url"
	"strings"

	"github.com/oksasatya/auth2-service/pkg/helpers"
)

// tokenReason names why a token was rejected, for logs and metrics only.
func tokenReason(err error) string {
	switch {
	case errors.Is(err, helpers.ErrTokenExpired):
		return "expired"
	case errors.Is(err, helpers.ErrTokenSignature):
		return "signature"
	case errors.Is(err, helpers.ErrTokenPurpose):
		return "purpose"
	default:
		return "malformed"
	}
}

// actionLink appends the token as a query parameter to base.
func actionLink(base, token string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "token=" + url.QueryEscape(token)
}
