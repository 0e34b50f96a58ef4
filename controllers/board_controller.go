package controller

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"boardly/models"
	"boardly/plans"
	"boardly/rbac"
	"boardly/utils"
)

type BoardController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Auth     *rbac.Authorizer
	Enforcer *plans.Enforcer
}

func NewBoardController(db *gorm.DB, logger *log.Logger) *BoardController {
	return &BoardController{
		DB:       db,
		Logger:   logger,
		Auth:     rbac.NewAuthorizer(rbac.NewStore(db)),
		Enforcer: plans.NewEnforcer(plans.NewStore(db)),
	}
}

type CreateBoardRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Color string `json:"color" validate:"omitempty,max=20"`
}

type UpdateBoardRequest struct {
	Name       *string `json:"name" validate:"omitempty,min=1,max=100"`
	Color      *string `json:"color" validate:"omitempty,max=20"`
	Position   *int    `json:"position"`
	IsArchived *bool   `json:"is_archived"`
}

type CreateListRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Position int    `json:"position"`
}

type UpdateListRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Position *int    `json:"position"`
}

// CreateBoard adds a board to a workspace. The board ceiling of the
// workspace owner's plan is checked inside the creating transaction so
// concurrent creates cannot slip past the limit.
func (bc *BoardController) CreateBoard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := bc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermCreateBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req CreateBoardRequest
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

	var workspace models.Workspace
	if err := bc.DB.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workspace not found",
		})
	}

	var board models.Board
	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		count, err := plans.CountForKind(tx, plans.ResourceBoard, workspaceID)
		if err != nil {
			return err
		}
		result, err := bc.Enforcer.CheckCreateAllowed(workspace.OwnerID, plans.ResourceBoard, int(count))
		if err != nil {
			return err
		}
		if !result.Allowed {
			return &limitError{result}
		}

		board = models.Board{
			WorkspaceID: workspaceID,
			CreatorID:   user.ID,
			Name:        req.Name,
			Color:       req.Color,
		}
		return tx.Create(&board).Error
	})
	if err != nil {
		var le *limitError
		if errors.As(err, &le) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   le.result.Message,
				"plan":    le.result.Tier,
				"limit":   le.result.Limit,
				"current": le.result.Current,
			})
		}
		bc.Logger.Printf("Failed to create board: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create board",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(board))
}

// GetBoards lists the workspace's boards
func (bc *BoardController) GetBoards(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := bc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var boards []models.Board
	if err := bc.DB.Where("workspace_id = ?", workspaceID).
		Order("position ASC, created_at ASC").
		Find(&boards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list boards",
		})
	}

	return c.JSON(utils.SuccessResponse(boards))
}

// GetBoard returns one board with its lists and cards
func (bc *BoardController) GetBoard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	boardID := utils.ParseUint(c.Params("boardID"))

	board, decision, err := bc.loadBoard(user.ID, boardID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load board",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	if err := bc.DB.
		Preload("Lists", func(db *gorm.DB) *gorm.DB {
			return db.Order("lists.position ASC")
		}).
		Preload("Lists.Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("cards.position ASC")
		}).
		Preload("Lists.Cards.Assignees").
		First(board, boardID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load board",
		})
	}

	return c.JSON(utils.SuccessResponse(board))
}

// UpdateBoard applies partial updates to a board
func (bc *BoardController) UpdateBoard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	boardID := utils.ParseUint(c.Params("boardID"))

	board, decision, err := bc.loadBoard(user.ID, boardID, rbac.PermEditBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load board",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req UpdateBoardRequest
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
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Color != nil {
		updates["color"] = *req.Color
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if req.IsArchived != nil {
		updates["is_archived"] = *req.IsArchived
	}
	if len(updates) == 0 {
		return c.JSON(utils.SuccessResponse(board))
	}

	if err := bc.DB.Model(board).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update board",
		})
	}

	return c.JSON(utils.SuccessResponse(board))
}

// DeleteBoard removes a board and everything on it
func (bc *BoardController) DeleteBoard(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	boardID := utils.ParseUint(c.Params("boardID"))

	board, decision, err := bc.loadBoard(user.ID, boardID, rbac.PermDeleteBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load board",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		var cardIDs []uint
		if err := tx.Model(&models.Card{}).Where("board_id = ?", board.ID).Pluck("id", &cardIDs).Error; err != nil {
			return err
		}
		if len(cardIDs) > 0 {
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardAssignee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardComment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("board_id = ?", board.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		if err := tx.Where("board_id = ?", board.ID).Delete(&models.List{}).Error; err != nil {
			return err
		}
		return tx.Delete(board).Error
	})
	if err != nil {
		bc.Logger.Printf("Failed to delete board %d: %v", board.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete board",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Board deleted",
	})
}

// CreateList adds a list to a board
func (bc *BoardController) CreateList(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	boardID := utils.ParseUint(c.Params("boardID"))

	board, decision, err := bc.loadBoard(user.ID, boardID, rbac.PermEditList)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load board",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req CreateListRequest
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

	list := models.List{
		BoardID:  board.ID,
		Name:     req.Name,
		Position: req.Position,
	}
	if err := bc.DB.Create(&list).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create list",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(list))
}

// UpdateList renames or repositions a list
func (bc *BoardController) UpdateList(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	listID := utils.ParseUint(c.Params("listID"))

	var list models.List
	if err := bc.DB.First(&list, listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	board, decision, err := bc.loadBoard(user.ID, list.BoardID, rbac.PermEditList)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req UpdateListRequest
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
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Position != nil {
		updates["position"] = *req.Position
	}
	if len(updates) > 0 {
		if err := bc.DB.Model(&list).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update list",
			})
		}
	}

	return c.JSON(utils.SuccessResponse(list))
}

// DeleteList removes a list and its cards
func (bc *BoardController) DeleteList(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	listID := utils.ParseUint(c.Params("listID"))

	var list models.List
	if err := bc.DB.First(&list, listID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "List not found",
		})
	}

	board, decision, err := bc.loadBoard(user.ID, list.BoardID, rbac.PermEditList)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if board == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Board not found",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	err = bc.DB.Transaction(func(tx *gorm.DB) error {
		var cardIDs []uint
		if err := tx.Model(&models.Card{}).Where("list_id = ?", list.ID).Pluck("id", &cardIDs).Error; err != nil {
			return err
		}
		if len(cardIDs) > 0 {
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardAssignee{}).Error; err != nil {
				return err
			}
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardComment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("list_id = ?", list.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(&list).Error
	})
	if err != nil {
		bc.Logger.Printf("Failed to delete list %d: %v", list.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete list",
		})
	}

	return c.JSON(fiber.Map{
		"message": "List deleted",
	})
}

// loadBoard fetches a board and evaluates perm against its workspace.
// Returns (nil, _, nil) when the board does not exist.
func (bc *BoardController) loadBoard(userID, boardID uint, perm rbac.Permission) (*models.Board, rbac.Decision, error) {
	var board models.Board
	if err := bc.DB.First(&board, boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rbac.Decision{}, nil
		}
		return nil, rbac.Decision{}, err
	}

	decision, err := bc.Auth.RequirePermission(userID, board.WorkspaceID, perm)
	if err != nil {
		return nil, rbac.Decision{}, err
	}
	return &board, decision, nil
}
