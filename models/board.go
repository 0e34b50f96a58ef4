package models

import (
	"time"

	"gorm.io/gorm"
)

// Board represents a kanban board inside a workspace
type Board struct {
	gorm.Model
	WorkspaceID uint `gorm:"not null;index" json:"workspace_id"`
	CreatorID   uint `gorm:"not null" json:"creator_id"`

	Name       string `gorm:"not null" json:"name"`
	Color      string `json:"color,omitempty"`
	Position   int    `gorm:"default:0" json:"position"`
	IsArchived bool   `gorm:"default:false" json:"is_archived"`

	// Relations
	Workspace Workspace `json:"-"`
	Lists     []List    `gorm:"foreignKey:BoardID" json:"lists,omitempty"`
}

// List is a column of cards on a board
type List struct {
	gorm.Model
	BoardID uint `gorm:"not null;index" json:"board_id"`

	Name     string `gorm:"not null" json:"name"`
	Position int    `gorm:"default:0" json:"position"`

	// Relations
	Board Board  `json:"-"`
	Cards []Card `gorm:"foreignKey:ListID" json:"cards,omitempty"`
}

// Card is a single task on a list
type Card struct {
	gorm.Model
	ListID    uint `gorm:"not null;index" json:"list_id"`
	BoardID   uint `gorm:"not null;index" json:"board_id"`
	CreatorID uint `gorm:"not null;index" json:"creator_id"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Position    int        `gorm:"default:0" json:"position"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relations
	List      List           `json:"-"`
	Assignees []CardAssignee `gorm:"foreignKey:CardID" json:"assignees,omitempty"`
	Comments  []CardComment  `gorm:"foreignKey:CardID" json:"comments,omitempty"`
}

// CardAssignee links users to the cards they are responsible for.
// Assignment feeds the own-card permission override: an assignee may
// edit or delete the card without holding the blanket permission.
type CardAssignee struct {
	gorm.Model
	CardID uint `gorm:"not null;index;uniqueIndex:idx_card_assignee" json:"card_id"`
	UserID uint `gorm:"not null;index;uniqueIndex:idx_card_assignee" json:"user_id"`

	// Relations
	Card Card `json:"-"`
	User User `json:"user,omitempty"`
}

// CardComment is a comment left on a card
type CardComment struct {
	gorm.Model
	CardID   uint `gorm:"not null;index" json:"card_id"`
	AuthorID uint `gorm:"not null" json:"author_id"`

	Body string `gorm:"type:text;not null" json:"body"`

	// Relations
	Card   Card `json:"-"`
	Author User `json:"author,omitempty"`
}
