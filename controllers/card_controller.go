package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"boardly/models"
	"boardly/rbac"
	"boardly/utils"
)

type CardController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Auth   *rbac.Authorizer
}

func NewCardController(db *gorm.DB, logger *log.Logger) *CardController {
	return &CardController{
		DB:     db,
		Logger: logger,
		Auth:   rbac.NewAuthorizer(rbac.NewStore(db)),
	}
}

type CreateCardRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"omitempty,max=5000"`
	Position    int        `json:"position"`
	DueAt       *time.Time `json:"due_at"`
}

type UpdateCardRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	ListID      *uint      `json:"list_id"`
	Position    *int       `json:"position"`
	DueAt       *time.Time `json:"due_at"`
	Completed   *bool      `json:"completed"`
}

type CreateCommentRequest struct {
	Body string `json:"body" validate:"required,min=1,max=5000"`
}

type AssignCardRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// CreateCard adds a card to a list
func (cc *CardController) CreateCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	listID := utils.ParseUint(c.Params("listID"))

	var list models.List
	if err := cc.DB.Preload("Board").First(&list, listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	decision, err := cc.Auth.RequirePermission(user.ID, list.Board.WorkspaceID, rbac.PermCreateCard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req CreateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	card := models.Card{
		ListID:      list.ID,
		BoardID:     list.BoardID,
		CreatorID:   user.ID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		DueAt:       req.DueAt,
	}
	if err := cc.DB.Create(&card).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create card",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(card))
}

// GetCard returns a card with assignees and comments
func (cc *CardController) GetCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	if err := cc.DB.
		Preload("Assignees.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("card_comments.created_at ASC")
		}).
		Preload("Comments.Author").
		First(card, cardID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}

	return c.JSON(utils.SuccessResponse(card))
}

// UpdateCard applies partial updates. Edits require either the blanket
// edit capability or the own-card override for creators and assignees.
func (cc *CardController) UpdateCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequireCardAction(user.ID, cardID, workspaceID, rbac.CardActionEdit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req UpdateCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.DueAt != nil {
		updates["due_at"] = *req.DueAt
	}
	if req.Completed != nil {
		if *req.Completed {
			updates["completed_at"] = time.Now()
		} else {
			updates["completed_at"] = nil
		}
	}
	if req.ListID != nil {
		// Moving across lists stays within the same board
		var target models.List
		if err := cc.DB.First(&target, *req.ListID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Target list not found",
			})
		}
		if target.BoardID != card.BoardID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Cards can only move between lists on the same board",
			})
		}
		updates["list_id"] = target.ID
	}

	if len(updates) > 0 {
		if err := cc.DB.Model(card).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update card",
			})
		}
	}

	return c.JSON(utils.SuccessResponse(card))
}

// DeleteCard removes a card, its assignments and its comments
func (cc *CardController) DeleteCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequireCardAction(user.ID, cardID, workspaceID, rbac.CardActionDelete)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.CardAssignee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.CardComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(card).Error
	})
	if err != nil {
		cc.Logger.Printf("Failed to delete card %d: %v", card.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete card",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Card deleted",
	})
}

// AssignCard assigns a workspace member to a card and notifies them
func (cc *CardController) AssignCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequireCardAction(user.ID, cardID, workspaceID, rbac.CardActionEdit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req AssignCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// The assignee must belong to the workspace
	assigneeRole, err := cc.Auth.GetUserWorkspaceRole(req.UserID, workspaceID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check membership",
		})
	}
	if assigneeRole == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User is not a member of this workspace",
		})
	}

	assignee := models.CardAssignee{
		CardID: card.ID,
		UserID: req.UserID,
	}
	if err := cc.DB.Create(&assignee).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already assigned to this card",
		})
	}

	if req.UserID != user.ID {
		notification := models.Notification{
			UserID:      req.UserID,
			WorkspaceID: &workspaceID,
			CardID:      &card.ID,
			Type:        "card_assigned",
			Message:     "You were assigned to \"" + card.Title + "\"",
		}
		if err := cc.DB.Create(&notification).Error; err != nil {
			cc.Logger.Printf("Failed to create assignment notification: %v", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(assignee))
}

// UnassignCard removes a card assignment
func (cc *CardController) UnassignCard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))
	assigneeID := utils.ParseUint(c.Params("userID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequireCardAction(user.ID, cardID, workspaceID, rbac.CardActionEdit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	result := cc.DB.Where("card_id = ? AND user_id = ?", card.ID, assigneeID).Delete(&models.CardAssignee{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove assignment",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Assignment removed",
	})
}

// CreateComment adds a comment to a card. Anyone who can see the board
// can comment.
func (cc *CardController) CreateComment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	decision, err := cc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	comment := models.CardComment{
		CardID:   card.ID,
		AuthorID: user.ID,
		Body:     req.Body,
	}
	if err := cc.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create comment",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(comment))
}

// DeleteComment removes a comment. Authors delete their own; the
// blanket delete capability covers the rest.
func (cc *CardController) DeleteComment(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	cardID := utils.ParseUint(c.Params("cardID"))
	commentID := utils.ParseUint(c.Params("commentID"))

	card, workspaceID, err := cc.loadCard(cardID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load card",
		})
	}
	if card == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Card not found",
		})
	}

	var comment models.CardComment
	if err := cc.DB.Where("id = ? AND card_id = ?", commentID, card.ID).First(&comment).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Comment not found",
		})
	}

	if comment.AuthorID != user.ID {
		allowed, err := cc.Auth.HasPermission(user.ID, workspaceID, rbac.PermDeleteAnyCard)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check permissions",
			})
		}
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "You can only delete your own comments",
			})
		}
	}

	if err := cc.DB.Delete(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete comment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Comment deleted",
	})
}

// loadCard fetches a card and resolves its workspace through the board.
// Returns (nil, 0, nil) when the card does not exist.
func (cc *CardController) loadCard(cardID uint) (*models.Card, uint, error) {
	var card models.Card
	if err := cc.DB.First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, err
	}

	var board models.Board
	if err := cc.DB.First(&board, card.BoardID).Error; err != nil {
		return nil, 0, err
	}
	return &card, board.WorkspaceID, nil
}
