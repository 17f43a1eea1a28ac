package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator" // may dispatch calls
	RoleViewer   = "viewer"   // read-only: logs, stats, export
)

func IsAdmin(role string) bool { return role == RoleAdmin }
