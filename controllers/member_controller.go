package controller

import (
	"errors"
	"log"
	"time"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"boardly/models"
	"boardly/plans"
	"boardly/rbac"
	"boardly/utils"
)

type MemberController struct {
	DB       *gorm.DB
	Logger   *log.Logger
	Auth     *rbac.Authorizer
	Enforcer *plans.Enforcer
}

func NewMemberController(db *gorm.DB, logger *log.Logger) *MemberController {
	return &MemberController{
		DB:       db,
		Logger:   logger,
		Auth:     rbac.NewAuthorizer(rbac.NewStore(db)),
		Enforcer: plans.NewEnforcer(plans.NewStore(db)),
	}
}

type InviteMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin member guest"`
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member guest"`
}

type AcceptInvitationRequest struct {
	Token string `json:"token" validate:"required"`
}

// ListMembers returns the workspace members with their roles
func (mc *MemberController) ListMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var members []models.WorkspaceMember
	if err := mc.DB.Preload("User").Where("workspace_id = ?", workspaceID).Find(&members).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list members",
		})
	}

	return c.JSON(utils.SuccessResponse(members))
}

// InviteMember creates a pending invitation and emails the invite link.
// Gated by the invite capability and by the member ceiling of the
// workspace owner's plan, counting members and pending invites.
func (mc *MemberController) InviteMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermInviteMembers)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req InviteMemberRequest
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
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	var workspace models.Workspace
	if err := mc.DB.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workspace not found",
		})
	}

	// Refuse duplicates: already a member or already invited
	var existing int64
	mc.DB.Model(&models.WorkspaceMember{}).
		Joins("JOIN users ON users.id = workspace_members.user_id").
		Where("workspace_members.workspace_id = ? AND users.email = ?", workspaceID, req.Email).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "User is already a member of this workspace",
		})
	}
	mc.DB.Model(&models.Invitation{}).
		Where("workspace_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?", workspaceID, req.Email, time.Now()).
		Count(&existing)
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An invitation for this email is already pending",
		})
	}

	token, err := utils.GenerateSecureToken()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate invitation token",
		})
	}

	var invitation models.Invitation
	err = mc.DB.Transaction(func(tx *gorm.DB) error {
		memberCount, err := plans.CountForKind(tx, plans.ResourceMember, workspaceID)
		if err != nil {
			return err
		}
		var pending int64
		if err := tx.Model(&models.Invitation{}).
			Where("workspace_id = ? AND accepted_at IS NULL AND expires_at > ?", workspaceID, time.Now()).
			Count(&pending).Error; err != nil {
			return err
		}

		// The ceiling is the workspace owner's, not the inviter's.
		result, err := mc.Enforcer.CheckCreateAllowed(workspace.OwnerID, plans.ResourceMember, int(memberCount+pending))
		if err != nil {
			return err
		}
		if !result.Allowed {
			return &limitError{result}
		}

		invitation = models.Invitation{
			WorkspaceID: workspaceID,
			InviterID:   user.ID,
			Email:       req.Email,
			Role:        req.Role,
			Token:       token,
			ExpiresAt:   time.Now().Add(models.InvitationTTL),
		}
		return tx.Create(&invitation).Error
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
		mc.reportError("invite_member_failed", err, map[string]interface{}{
			"workspace_id": workspaceID,
			"inviter_id":   user.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	inviterName := user.Email
	if user.Name != nil && *user.Name != "" {
		inviterName = *user.Name
	}

	// Registered invitees also get an in-app notification
	var invitee models.User
	if err := mc.DB.Where("email = ?", req.Email).First(&invitee).Error; err == nil {
		notification := models.Notification{
			UserID:      invitee.ID,
			WorkspaceID: &invitation.WorkspaceID,
			Type:        "invite",
			Message:     inviterName + " invited you to join " + workspace.Name,
		}
		if err := mc.DB.Create(&notification).Error; err != nil {
			mc.Logger.Printf("Failed to create invite notification: %v", err)
		}
	}
	if err := utils.SendInvitationEmail(req.Email, inviterName, workspace.Name, req.Role, token); err != nil {
		// The invitation row exists; the link can still be resent.
		mc.reportError("invite_email_failed", err, map[string]interface{}{
			"workspace_id": workspaceID,
			"email":        req.Email,
		})
	}

	logrus.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"inviter_id":   user.ID,
		"role":         req.Role,
	}).Info("Invitation created")

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(invitation))
}

// AcceptInvitation converts a pending invitation into a membership.
// The caller must be authenticated with the invited email address.
func (mc *MemberController) AcceptInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req AcceptInvitationRequest
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

	var invitation models.Invitation
	if err := mc.DB.Where("token = ?", req.Token).First(&invitation).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}

	if invitation.AcceptedAt != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Invitation has already been accepted",
		})
	}
	if invitation.IsExpired() {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "Invitation has expired",
		})
	}
	if invitation.Email != user.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invitation was issued to a different email address",
		})
	}

	err := mc.DB.Transaction(func(tx *gorm.DB) error {
		member := models.WorkspaceMember{
			WorkspaceID: invitation.WorkspaceID,
			UserID:      user.ID,
			Role:        invitation.Role,
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}

		now := time.Now()
		invitation.AcceptedAt = &now
		if err := tx.Save(&invitation).Error; err != nil {
			return err
		}

		notification := models.Notification{
			UserID:      invitation.InviterID,
			WorkspaceID: &invitation.WorkspaceID,
			Type:        "invite_accepted",
			Message:     user.Email + " accepted your workspace invitation",
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		mc.reportError("accept_invitation_failed", err, map[string]interface{}{
			"invitation_id": invitation.ID,
			"user_id":       user.ID,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	return c.JSON(fiber.Map{
		"message":      "Invitation accepted",
		"workspace_id": invitation.WorkspaceID,
	})
}

// ListInvitations returns the workspace's pending invitations
func (mc *MemberController) ListInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermInviteMembers)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var invitations []models.Invitation
	if err := mc.DB.
		Where("workspace_id = ? AND accepted_at IS NULL AND expires_at > ?", workspaceID, time.Now()).
		Order("created_at DESC").
		Find(&invitations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list invitations",
		})
	}

	return c.JSON(utils.SuccessResponse(invitations))
}

// CancelInvitation deletes a pending invitation
func (mc *MemberController) CancelInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))
	invitationID := utils.ParseUint(c.Params("invitationID"))

	decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermInviteMembers)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	result := mc.DB.Where("id = ? AND workspace_id = ? AND accepted_at IS NULL", invitationID, workspaceID).
		Delete(&models.Invitation{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel invitation",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invitation not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Invitation cancelled",
	})
}

// ChangeMemberRole updates a member's role. Only the manage-members
// capability (owner) may do this; the owner's own role is immutable.
func (mc *MemberController) ChangeMemberRole(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))
	memberUserID := utils.ParseUint(c.Params("userID"))

	decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermManageMembers)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	var req ChangeRoleRequest
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
	if err := mc.DB.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workspace not found",
		})
	}
	if workspace.OwnerID == memberUserID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "The workspace owner's role cannot be changed",
		})
	}

	var member models.WorkspaceMember
	if err := mc.DB.Where("workspace_id = ? AND user_id = ?", workspaceID, memberUserID).First(&member).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Member not found",
		})
	}

	member.Role = req.Role
	if err := mc.DB.Save(&member).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update role",
		})
	}

	notification := models.Notification{
		UserID:      memberUserID,
		WorkspaceID: &workspace.ID,
		Type:        "role_change",
		Message:     "Your role in " + workspace.Name + " is now " + req.Role,
	}
	if err := mc.DB.Create(&notification).Error; err != nil {
		mc.Logger.Printf("Failed to create role-change notification: %v", err)
	}

	return c.JSON(utils.SuccessResponse(member))
}

// RemoveMember removes a member from the workspace
func (mc *MemberController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))
	memberUserID := utils.ParseUint(c.Params("userID"))

	// Members may remove themselves; anyone else needs manage-members.
	if memberUserID != user.ID {
		decision, err := mc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermManageMembers)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to check permissions",
			})
		}
		if !decision.Allowed {
			return denyResponse(c, decision)
		}
	}

	var workspace models.Workspace
	if err := mc.DB.First(&workspace, workspaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Workspace not found",
		})
	}
	if workspace.OwnerID == memberUserID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "The workspace owner cannot be removed",
		})
	}

	result := mc.DB.Where("workspace_id = ? AND user_id = ?", workspaceID, memberUserID).
		Delete(&models.WorkspaceMember{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Member not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member removed",
	})
}

// reportError logs with structured context and forwards to Sentry
func (mc *MemberController) reportError(errorType string, err error, context map[string]interface{}) {
	entry := logrus.WithFields(logrus.Fields{
		"error_type": errorType,
		"error":      err.Error(),
	})
	for k, v := range context {
		entry = entry.WithField(k, v)
	}
	entry.Error("Error occurred")

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_type", errorType)
		for k, v := range context {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}
