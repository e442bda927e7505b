package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCan(t *testing.T) {
	cases := []struct {
		role Role
		perm Permission
		want bool
	}{
		{RoleViewer, Permission{ResourceMeterValues, ActionRead}, true},
		{RoleViewer, Permission{ResourceExports, ActionExport}, false},
		{RoleOperator, Permission{ResourceExports, ActionExport}, true},
		{RoleAdmin, Permission{ResourceTransactions, ActionRead}, true},
		{RoleAdmin, Permission{ResourceTransactions, ActionExport}, false},
		{Role("guest"), Permission{ResourceMeterValues, ActionRead}, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.perm); got != tc.want {
			t.Fatalf("Can(%s, %+v) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole(" Admin "); !ok || role != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", role, ok)
	}
	if _, ok := ParseRole("root"); ok {
		t.Fatalf("expected root to be rejected")
	}
	if !RoleOperator.Satisfies(RoleViewer) || RoleViewer.Satisfies(RoleOperator) || Role("guest").Satisfies(RoleViewer) {
		t.Fatalf("unexpected role ranking")
	}
}

func TestPolicyRequiredPermission(t *testing.T) {
	policy := NewDefaultPolicy(nil, nil)
	cases := []struct {
		path string
		want Permission
		ok   bool
	}{
		{"/api/v1/transactions/tx-1/series", Permission{ResourceMeterValues, ActionRead}, true},
		{"/api/v1/transactions/tx-1/series/export.xlsx", Permission{ResourceExports, ActionExport}, true},
		{"/api/v1/transactions", Permission{ResourceTransactions, ActionRead}, true},
		{"/api/v1/meter-values", Permission{}, false},
		{"/healthz", Permission{}, false},
	}
	for _, tc := range cases {
		got, ok := policy.RequiredPermission(httptest.NewRequest(http.MethodGet, tc.path, nil))
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: got (%+v, %v), want (%+v, %v)", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPolicyFallbackRole(t *testing.T) {
	policy := NewDefaultPolicy(nil, nil)
	cases := []struct {
		method string
		path   string
		want   Role
		ok     bool
	}{
		{http.MethodGet, "/api/v1/other", RoleViewer, true},
		{http.MethodDelete, "/api/v1/other", RoleOperator, true},
		{http.MethodGet, "/healthz", "", false},
	}
	for _, tc := range cases {
		got, ok := policy.FallbackRole(httptest.NewRequest(tc.method, tc.path, nil))
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s %s: got (%q, %v), want (%q, %v)", tc.method, tc.path, got, ok, tc.want, tc.ok)
		}
	}
}
