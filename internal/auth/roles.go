package auth

import "strings"

// Role is a dashboard role. Roles are ranked: a higher role holds every grant of a lower one.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

var roleRanks = map[Role]int{
	RoleViewer:   1,
	RoleOperator: 2,
	RoleAdmin:    3,
}

// ParseRole validates a role claim. Matching is case-insensitive.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := roleRanks[role]; !ok {
		return "", false
	}
	return role, true
}

// Satisfies reports whether r ranks at or above required. Unknown roles satisfy nothing.
func (r Role) Satisfies(required Role) bool {
	rank, ok := roleRanks[r]
	if !ok {
		return false
	}
	return rank >= roleRanks[required]
}
