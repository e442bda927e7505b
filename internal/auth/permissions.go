package auth

// Resource is a protected dashboard resource.
type Resource string

const (
	ResourceTransactions Resource = "transactions"
	ResourceMeterValues  Resource = "meter_values"
	ResourceExports      Resource = "exports"
)

// Action is an operation on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionExport Action = "export"
)

// Permission pairs a resource with an action.
type Permission struct {
	Resource Resource
	Action   Action
}

var permissionTable = map[Permission]Role{
	{ResourceTransactions, ActionRead}: RoleViewer,
	{ResourceMeterValues, ActionRead}:  RoleViewer,
	{ResourceExports, ActionExport}:    RoleOperator,
}

// MinimumRole returns the lowest role granted a permission.
func MinimumRole(p Permission) (Role, bool) {
	role, ok := permissionTable[p]
	return role, ok
}

// Can reports whether role holds permission. Unknown permissions are denied.
func Can(role Role, p Permission) bool {
	required, ok := MinimumRole(p)
	if !ok {
		return false
	}
	return role.Satisfies(required)
}
