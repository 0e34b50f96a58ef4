package models

import "gorm.io/gorm"

// ChatMessage is a message in a workspace chat channel
type ChatMessage struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`
	AuthorID    uint `gorm:"not null;index" json:"author_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// Relations
	Workspace Workspace `json:"-"`
	Author    User      `json:"author,omitempty"`
}
