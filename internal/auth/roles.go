package auth

import "github.com/spec-kit/ticket-tracker/internal/domain"

// Permission is a string capability gating one or more routes.
type Permission string

const (
	PermissionGetTickets    Permission = "getTickets"
	PermissionEditTickets   Permission = "editTickets"
	PermissionManageTickets Permission = "manageTickets"
)

// rolePermissions is the process-wide role table. It is defined once and
// never mutated at runtime.
var rolePermissions = map[domain.Role][]Permission{
	domain.RoleEmployee: {PermissionGetTickets, PermissionEditTickets},
	domain.RoleAdmin:    {PermissionGetTickets, PermissionEditTickets, PermissionManageTickets},
}

// PermissionsFor returns the permission set for a role, nil for unknown roles.
func PermissionsFor(role domain.Role) []Permission {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role's permission set contains p.
func HasPermission(role domain.Role, p Permission) bool {
	for _, candidate := range rolePermissions[role] {
		if candidate == p {
			return true
		}
	}
	return false
}
