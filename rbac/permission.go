package rbac

// Permission is a named capability gating one class of action inside a
// workspace. Permissions are configuration data, not persisted state.
type Permission string

const (
	PermViewBoard   Permission = "view_board"
	PermCreateBoard Permission = "create_board"
	PermEditBoard   Permission = "edit_board"
	PermDeleteBoard Permission = "delete_board"

	PermEditList Permission = "edit_list"

	PermCreateCard    Permission = "create_card"
	PermEditAnyCard   Permission = "edit_any_card"
	PermEditOwnCard   Permission = "edit_own_card"
	PermDeleteAnyCard Permission = "delete_any_card"
	PermDeleteOwnCard Permission = "delete_own_card"

	PermInviteMembers   Permission = "invite_members"
	PermManageMembers   Permission = "manage_members"
	PermManageWorkspace Permission = "manage_workspace"
)

// minRoleFor is the single source of truth for which roles hold which
// permission. Every permission here is monotonic: holding a higher
// role never loses a capability, so one minimum role per permission is
// enough. Role ordering elsewhere must go through this table rather
// than ad-hoc comparisons.
var minRoleFor = map[Permission]Role{
	PermViewBoard:   RoleGuest,
	PermCreateBoard: RoleMember,
	PermEditBoard:   RoleMember,
	PermDeleteBoard: RoleAdmin,

	PermEditList: RoleMember,

	PermCreateCard:    RoleMember,
	PermEditAnyCard:   RoleAdmin,
	PermEditOwnCard:   RoleMember,
	PermDeleteAnyCard: RoleAdmin,
	PermDeleteOwnCard: RoleMember,

	PermInviteMembers:   RoleAdmin,
	PermManageMembers:   RoleOwner,
	PermManageWorkspace: RoleOwner,
}

// HoldsPermission answers whether a role holds a permission. Unknown
// permissions and RoleNone always deny.
func HoldsPermission(role Role, perm Permission) bool {
	min, ok := minRoleFor[perm]
	if !ok || role == RoleNone {
		return false
	}
	return role >= min
}

// AllPermissions returns every configured permission, mainly for tests
// and for the role matrix the settings UI renders.
func AllPermissions() []Permission {
	perms := make([]Permission, 0, len(minRoleFor))
	for p := range minRoleFor {
		perms = append(perms, p)
	}
	return perms
}

// CardAction is a card mutation subject to the any/own overlay
type CardAction string

const (
	CardActionEdit   CardAction = "edit"
	CardActionDelete CardAction = "delete"
)

// cardActionPerms maps a card action to its blanket and own-resource
// permission variants.
var cardActionPerms = map[CardAction]struct {
	any Permission
	own Permission
}{
	CardActionEdit:   {any: PermEditAnyCard, own: PermEditOwnCard},
	CardActionDelete: {any: PermDeleteAnyCard, own: PermDeleteOwnCard},
}
