package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification is an in-app notification for a user
type Notification struct {
	gorm.Model
	UserID      uint  `gorm:"not null;index" json:"user_id"`
	WorkspaceID *uint `gorm:"index" json:"workspace_id,omitempty"`
	CardID      *uint `json:"card_id,omitempty"`

	Type    string     `gorm:"not null" json:"type"` // invite, invite_accepted, role_change, card_assigned, chat_mention
	Message string     `gorm:"not null" json:"message"`
	ReadAt  *time.Time `json:"read_at,omitempty"`

	// Relations
	User User `json:"-"`
}
