package auth

import (
	"errors"
	"net/http"
)

// Authorization failures. Middleware answers ErrForbidden with 403 and the rest with 401.
var (
	ErrUnauthorized = errors.New("auth: missing credentials")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrForbidden    = errors.New("auth: permission denied")
)

func statusFor(err error) int {
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}
