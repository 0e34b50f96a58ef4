package rbac

import (
	"errors"

	"gorm.io/gorm"

	"boardly/models"
)

// ErrWorkspaceNotFound distinguishes "no such workspace" from "no
// relationship to it"; callers render the former as a 404.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrCardNotFound is returned when the card under an ownership check
// does not exist.
var ErrCardNotFound = errors.New("card not found")

// WorkspaceInfo is the slice of workspace state the resolver needs
type WorkspaceInfo struct {
	ID      uint
	OwnerID uint
}

// CardFacts holds the ownership facts behind the own-card override
type CardFacts struct {
	WorkspaceID uint
	IsCreator   bool
	IsAssignee  bool
}

// Store provides the persisted facts the authorizer resolves against.
// The production implementation reads GORM models; tests substitute a
// fake.
type Store interface {
	GetWorkspace(workspaceID uint) (*WorkspaceInfo, error)
	// GetMembership returns the stored role string and whether a
	// membership row exists at all.
	GetMembership(userID, workspaceID uint) (string, bool, error)
	GetCardFacts(cardID, userID uint) (*CardFacts, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a Store backed by the application database
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetWorkspace(workspaceID uint) (*WorkspaceInfo, error) {
	var workspace models.Workspace
	if err := s.db.Select("id", "owner_id").First(&workspace, workspaceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &WorkspaceInfo{ID: workspace.ID, OwnerID: workspace.OwnerID}, nil
}

func (s *gormStore) GetMembership(userID, workspaceID uint) (string, bool, error) {
	var member models.WorkspaceMember
	err := s.db.Where("user_id = ? AND workspace_id = ?", userID, workspaceID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return member.Role, true, nil
}

func (s *gormStore) GetCardFacts(cardID, userID uint) (*CardFacts, error) {
	var card models.Card
	if err := s.db.Select("id", "board_id", "creator_id").First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}

	var board models.Board
	if err := s.db.Select("id", "workspace_id").First(&board, card.BoardID).Error; err != nil {
		return nil, err
	}

	var assigned int64
	if err := s.db.Model(&models.CardAssignee{}).
		Where("card_id = ? AND user_id = ?", cardID, userID).
		Count(&assigned).Error; err != nil {
		return nil, err
	}

	return &CardFacts{
		WorkspaceID: board.WorkspaceID,
		IsCreator:   card.CreatorID == userID,
		IsAssignee:  assigned > 0,
	}, nil
}
