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

type WorkspaceController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Auth     *rbac.Authorizer
	Enforcer *plans.Enforcer
}

func NewWorkspaceController(db *gorm.DB, logger *log.Logger) *WorkspaceController {
	return &WorkspaceController{
		DB:       db,
		Logger:   logger,
		Auth:     rbac.NewAuthorizer(rbac.NewStore(db)),
		Enforcer: plans.NewEnforcer(plans.NewStore(db)),
	}
}

type CreateWorkspaceRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

type UpdateWorkspaceRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (wc *WorkspaceController) CreateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateWorkspaceRequest
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

	// Count and create inside one transaction so two concurrent
	// requests cannot both slip under the ceiling.
	var workspace models.Workspace
	err := wc.DB.Transaction(func(tx *gorm.DB) error {
		count, err := plans.CountForKind(tx, plans.ResourceWorkspace, user.ID)
		if err != nil {
			return err
		}

		result, err := wc.Enforcer.CheckCreateAllowed(user.ID, plans.ResourceWorkspace, int(count))
		if err != nil {
			return err
		}
		if !result.Allowed {
			return &limitError{result}
		}

		workspace = models.Workspace{
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     user.ID,
		}
		return tx.Create(&workspace).Error
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
		wc.Logger.Printf("Error creating workspace for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create workspace",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(workspace))
}

func (wc *WorkspaceController) GetWorkspaces(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	// Owned workspaces plus workspaces the user is a member of
	var workspaces []models.Workspace
	err := wc.DB.
		Distinct("workspaces.*").
		Joins("LEFT JOIN workspace_members ON workspace_members.workspace_id = workspaces.id AND workspace_members.deleted_at IS NULL").
		Where("workspaces.owner_id = ? OR workspace_members.user_id = ?", user.ID, user.ID).
		Find(&workspaces).Error
	if err != nil {
		wc.Logger.Printf("Error listing workspaces for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list workspaces",
		})
	}

	return c.JSON(utils.SuccessResponse(workspaces))
}

func (wc *WorkspaceController) GetWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := wc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var workspace models.Workspace
	if err := wc.DB.Preload("Members.User").Preload("Boards").First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workspace not found",
		})
	}

	return c.JSON(utils.SuccessResponse(workspace))
}

// GetWorkspaceRole returns the caller's resolved role for UI badges
func (wc *WorkspaceController) GetWorkspaceRole(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	role, err := wc.Auth.GetUserWorkspaceRole(user.ID, workspaceID)
	if err != nil {
		if errors.Is(err, rbac.ErrWorkspaceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Workspace not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve role",
		})
	}

	return c.JSON(fiber.Map{
		"role": role,
	})
}

func (wc *WorkspaceController) UpdateWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := wc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermManageWorkspace)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req UpdateWorkspaceRequest
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
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Nothing to update",
		})
	}

	if err := wc.DB.Model(&models.Workspace{}).Where("id = ?", workspaceID).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update workspace",
		})
	}

	var workspace models.Workspace
	if err := wc.DB.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load workspace",
		})
	}

	return c.JSON(utils.SuccessResponse(workspace))
}

func (wc *WorkspaceController) DeleteWorkspace(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := wc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermManageWorkspace)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	// Deleting a workspace cascades to memberships, invitations,
	// boards and their contents.
	err = wc.DB.Transaction(func(tx *gorm.DB) error {
		var boardIDs []uint
		if err := tx.Model(&models.Board{}).Where("workspace_id = ?", workspaceID).Pluck("id", &boardIDs).Error; err != nil {
			return err
		}
		if len(boardIDs) > 0 {
			var cardIDs []uint
			if err := tx.Model(&models.Card{}).Where("board_id IN ?", boardIDs).Pluck("id", &cardIDs).Error; err != nil {
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
			if err := tx.Where("board_id IN ?", boardIDs).Delete(&models.Card{}).Error; err != nil {
				return err
			}
			if err := tx.Where("board_id IN ?", boardIDs).Delete(&models.List{}).Error; err != nil {
				return err
			}
			if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Board{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Invitation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, workspaceID).Error
	})
	if err != nil {
		wc.Logger.Printf("Error deleting workspace %d: %v", workspaceID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete workspace",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Workspace deleted",
	})
}

// limitError carries a structured plan-limit denial through a
// transaction rollback
type limitError struct {
	result plans.LimitResult
}

func (e *limitError) Error() string {
	return e.result.Message
}
