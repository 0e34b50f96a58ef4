package rbac

// Role is a workspace access level. Higher values grant strictly more
// permissions, so role checks can compare instead of enumerating.
type Role int

const (
	// RoleNone means the user has no relationship to the workspace.
	RoleNone Role = 0

	RoleGuest  Role = 1 // read-only access
	RoleMember Role = 2 // can create and edit boards and cards
	RoleAdmin  Role = 3 // can delete boards and moderate any card
	RoleOwner  Role = 4 // full control including workspace settings
)

// ParseRole converts a role string from the database to a Role.
// Unknown or empty values map to RoleGuest (least privilege).
func ParseRole(s string) Role {
	switch s {
	case "owner":
		return RoleOwner
	case "admin":
		return RoleAdmin
	case "member":
		return RoleMember
	default:
		return RoleGuest
	}
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleMember:
		return "member"
	case RoleGuest:
		return "guest"
	default:
		return ""
	}
}
