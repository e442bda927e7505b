package auth

import (
	"net/http"
	"strings"
)

// Policy determines required permissions by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredPermission maps a dashboard route to the permission it needs.
func (p Policy) RequiredPermission(r *http.Request) (Permission, bool) {
	if r == nil {
		return Permission{}, false
	}
	path := r.URL.Path
	if !strings.HasPrefix(path, "/api/v1/transactions") {
		return Permission{}, false
	}

	switch {
	case strings.Contains(path, "/series/export."):
		return Permission{ResourceExports, ActionExport}, true
	case strings.HasSuffix(path, "/series"):
		return Permission{ResourceMeterValues, ActionRead}, true
	default:
		return Permission{ResourceTransactions, ActionRead}, true
	}
}

// FallbackRole is the minimum role for /api/ routes that map to no permission: viewer for
// reads, operator for everything else.
func (p Policy) FallbackRole(r *http.Request) (Role, bool) {
	if r == nil || !strings.HasPrefix(r.URL.Path, "/api/") {
		return "", false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return RoleViewer, true
	default:
		return RoleOperator, true
	}
}
