package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Middleware authenticates dashboard requests with a JWT and checks the caller's role
// against the permission the route needs.
type Middleware struct {
	Secret []byte
	Policy Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{Secret: secret, Policy: policy}
}

// Wrap applies authentication and authorization to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		identity, guarded, err := m.authorize(r)
		if err != nil {
			status := statusFor(err)
			http.Error(w, strings.ToLower(http.StatusText(status)), status)
			return
		}
		if !guarded {
			next.ServeHTTP(w, r)
			return
		}
		ctx := WithIdentity(r.Context(), identity.TenantID, identity.Role, identity.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize resolves the caller and checks it against the route. guarded is false for
// routes the policy does not protect.
func (m *Middleware) authorize(r *http.Request) (identity Identity, guarded bool, err error) {
	perm, mapped := m.Policy.RequiredPermission(r)
	var fallback Role
	if !mapped {
		if fallback, guarded = m.Policy.FallbackRole(r); !guarded {
			return Identity{}, false, nil
		}
	}

	claims, err := ParseJWT(bearerToken(r), m.Secret)
	if err != nil {
		return Identity{}, true, err
	}
	role, _ := ParseRole(claims.Role)
	identity = Identity{TenantID: claims.TenantID, Role: role, Subject: claims.Subject}

	if mapped {
		if !Can(role, perm) {
			return identity, true, fmt.Errorf("%w: %s cannot %s %s", ErrForbidden, role, perm.Action, perm.Resource)
		}
		return identity, true, nil
	}
	if !role.Satisfies(fallback) {
		return identity, true, fmt.Errorf("%w: %s below %s", ErrForbidden, role, fallback)
	}
	return identity, true, nil
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
