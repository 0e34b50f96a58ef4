package models

import (
	"time"

	"gorm.io/gorm"
)

// Workspace is the top-level tenant container. Every workspace has
// exactly one owner; the owner is treated as holding the owner role for
// permission purposes whether or not a membership row exists for them.
type Workspace struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`

	// Relations
	Owner       User              `json:"-"`
	Members     []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Boards      []Board           `gorm:"foreignKey:WorkspaceID" json:"boards,omitempty"`
	Invitations []Invitation      `gorm:"foreignKey:WorkspaceID" json:"invitations,omitempty"`
}

// WorkspaceMember links a user to a workspace with a role
type WorkspaceMember struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index;uniqueIndex:idx_workspace_user" json:"workspace_id"`
	UserID      uint `gorm:"not null;index;uniqueIndex:idx_workspace_user" json:"user_id"`

	Role string `gorm:"default:'member'" json:"role"` // owner, admin, member, guest

	// Relations
	Workspace Workspace `json:"-"`
	User      User      `json:"user,omitempty"`
}

// Invitation is a pending membership grant for an email address that
// may not yet belong to a registered user
type Invitation struct {
	gorm.Model
	WorkspaceID uint   `gorm:"not null;index" json:"workspace_id"`
	InviterID   uint   `gorm:"not null" json:"inviter_id"`
	Email       string `gorm:"not null;index" json:"email"`
	Role        string `gorm:"default:'member'" json:"role"`

	Token      string     `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`

	// Relations
	Workspace Workspace `json:"workspace,omitempty"`
	Inviter   User      `json:"-"`
}

// InvitationTTL is how long an invitation stays valid before the
// cleanup worker purges it.
const InvitationTTL = 72 * time.Hour

// IsExpired reports whether the invitation can no longer be accepted
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}
