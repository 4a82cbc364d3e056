package auth

import "github.com/fragmede/ojterm/internal/api"

// HasAdminPrivilege reports whether roles grant access to admin views.
func HasAdminPrivilege(roles []api.Role) bool {
	for _, r := range roles {
		switch r {
		case api.RoleAdmin, api.RoleSuperAdmin:
			return true
		}
	}
	return false
}
