package rbac

import (
	"errors"
	"fmt"
	"net/http"
)

// Authorizer resolves workspace roles and answers permission checks.
// It holds no state of its own: every check re-reads the store, so it
// is safe to share and call concurrently.
type Authorizer struct {
	store Store
}

func NewAuthorizer(store Store) *Authorizer {
	return &Authorizer{store: store}
}

// ResolveRole computes the effective role a user holds in a workspace.
// The workspace owner is always RoleOwner, even when no membership row
// exists or a stale row carries a lower role; otherwise the membership
// row decides. RoleNone means the user has no relationship to the
// workspace. A missing workspace returns ErrWorkspaceNotFound so
// callers can tell "no workspace" apart from "no relationship".
func (a *Authorizer) ResolveRole(userID, workspaceID uint) (Role, error) {
	workspace, err := a.store.GetWorkspace(workspaceID)
	if err != nil {
		return RoleNone, err
	}

	if workspace.OwnerID == userID {
		return RoleOwner, nil
	}

	roleName, found, err := a.store.GetMembership(userID, workspaceID)
	if err != nil {
		return RoleNone, err
	}
	if !found {
		return RoleNone, nil
	}
	return ParseRole(roleName), nil
}

// HasPermission reports whether the user holds the permission in the
// workspace.
func (a *Authorizer) HasPermission(userID, workspaceID uint, perm Permission) (bool, error) {
	role, err := a.ResolveRole(userID, workspaceID)
	if err != nil {
		return false, err
	}
	return HoldsPermission(role, perm), nil
}

// CanActOnCard answers whether the user may perform a card action,
// applying the own-card override: the blanket permission is checked
// first so elevated roles never pay for a card fetch, and only then
// are the card's ownership facts consulted against the own variant.
func (a *Authorizer) CanActOnCard(userID, cardID, workspaceID uint, action CardAction) (bool, error) {
	perms, ok := cardActionPerms[action]
	if !ok {
		return false, nil
	}

	role, err := a.ResolveRole(userID, workspaceID)
	if err != nil {
		return false, err
	}
	if role == RoleNone {
		return false, nil
	}

	if HoldsPermission(role, perms.any) {
		return true, nil
	}
	if !HoldsPermission(role, perms.own) {
		return false, nil
	}

	facts, err := a.store.GetCardFacts(cardID, userID)
	if err != nil {
		return false, err
	}
	return facts.IsCreator || facts.IsAssignee, nil
}

// Decision is the structured outcome of a guard check. Denials are
// values rather than errors so handlers can render a clean 4xx with
// the message as-is.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(status int, message string) Decision {
	return Decision{Allowed: false, Status: status, Message: message}
}

// RequirePermission is the enforcement entry point route handlers use;
// they should never call HasPermission directly, so denial messaging
// stays consistent. Store failures still propagate as errors for the
// route layer to surface as 500s.
func (a *Authorizer) RequirePermission(userID, workspaceID uint, perm Permission) (Decision, error) {
	role, err := a.ResolveRole(userID, workspaceID)
	if err != nil {
		if errors.Is(err, ErrWorkspaceNotFound) {
			return deny(http.StatusNotFound, "Workspace not found"), nil
		}
		return Decision{}, err
	}

	if role == RoleNone {
		return deny(http.StatusForbidden, "You are not a member of this workspace"), nil
	}
	if !HoldsPermission(role, perm) {
		return deny(http.StatusForbidden, fmt.Sprintf("You do not have the %s capability in this workspace", perm)), nil
	}
	return allow(), nil
}

// RequireCardAction is the guard counterpart of CanActOnCard
func (a *Authorizer) RequireCardAction(userID, cardID, workspaceID uint, action CardAction) (Decision, error) {
	allowed, err := a.CanActOnCard(userID, cardID, workspaceID, action)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkspaceNotFound):
			return deny(http.StatusNotFound, "Workspace not found"), nil
		case errors.Is(err, ErrCardNotFound):
			return deny(http.StatusNotFound, "Card not found"), nil
		}
		return Decision{}, err
	}
	if !allowed {
		return deny(http.StatusForbidden, fmt.Sprintf("You may only %s cards you created or are assigned to", action)), nil
	}
	return allow(), nil
}

// GetUserWorkspaceRole exposes the resolved role name for UI badges.
// It is a read-only query, not a gate: an empty string means no
// relationship.
func (a *Authorizer) GetUserWorkspaceRole(userID, workspaceID uint) (string, error) {
	role, err := a.ResolveRole(userID, workspaceID)
	if err != nil {
		return "", err
	}
	return role.String(), nil
}
