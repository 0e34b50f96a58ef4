package controller

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"boardly/models"
	"boardly/rbac"
	"boardly/utils"
)

type ChatController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Auth   *rbac.Authorizer

	mu    sync.RWMutex
	rooms map[uint]map[*websocket.Conn]bool
}

func NewChatController(db *gorm.DB, logger *log.Logger) *ChatController {
	return &ChatController{
		DB:     db,
		Logger: logger,
		Auth:   rbac.NewAuthorizer(rbac.NewStore(db)),
		rooms:  make(map[uint]map[*websocket.Conn]bool),
	}
}

type chatInbound struct {
	Body string `json:"body"`
}

type chatOutbound struct {
	ID          uint      `json:"id"`
	WorkspaceID uint      `json:"workspace_id"`
	AuthorID    uint      `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetChatHistory returns the most recent workspace messages, newest last
func (chc *ChatController) GetChatHistory(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	workspaceID := utils.ParseUint(c.Params("id"))

	decision, err := chc.Auth.RequirePermission(user.ID, workspaceID, rbac.PermViewBoard)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check permissions",
		})
	}
	if !decision.Allowed {
		return denyResponse(c, decision)
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var messages []models.ChatMessage
	if err := chc.DB.Preload("Author").
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chat history",
		})
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return c.JSON(utils.SuccessResponse(messages))
}

// HandleChatWS runs the websocket session for a workspace chat room.
// The connection was authenticated by the JWT middleware before the
// upgrade; membership is re-checked here so a removed member cannot
// keep an open room connection useful.
func (chc *ChatController) HandleChatWS(c *websocket.Conn) {
	defer c.Close()

	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return
	}
	workspaceID := utils.ParseUint(c.Params("id"))

	role, err := chc.Auth.ResolveRole(user.ID, workspaceID)
	if err != nil || role == rbac.RoleNone {
		c.WriteJSON(fiber.Map{"error": "You are not a member of this workspace"})
		return
	}

	chc.join(workspaceID, c)
	defer chc.leave(workspaceID, c)

	for {
		var in chatInbound
		if err := c.ReadJSON(&in); err != nil {
			return
		}
		if in.Body == "" || len(in.Body) > 5000 {
			continue
		}

		// Guests read the room but cannot post
		if role < rbac.RoleMember {
			c.WriteJSON(fiber.Map{"error": "Guests cannot post messages"})
			continue
		}

		message := models.ChatMessage{
			WorkspaceID: workspaceID,
			AuthorID:    user.ID,
			Body:        in.Body,
		}
		if err := chc.DB.Create(&message).Error; err != nil {
			chc.Logger.Printf("Failed to persist chat message: %v", err)
			continue
		}

		authorName := user.Email
		if user.Name != nil && *user.Name != "" {
			authorName = *user.Name
		}
		chc.broadcast(workspaceID, chatOutbound{
			ID:          message.ID,
			WorkspaceID: workspaceID,
			AuthorID:    user.ID,
			AuthorName:  authorName,
			Body:        message.Body,
			CreatedAt:   message.CreatedAt,
		})
	}
}

func (chc *ChatController) join(workspaceID uint, c *websocket.Conn) {
	chc.mu.Lock()
	defer chc.mu.Unlock()
	if chc.rooms[workspaceID] == nil {
		chc.rooms[workspaceID] = make(map[*websocket.Conn]bool)
	}
	chc.rooms[workspaceID][c] = true
}

func (chc *ChatController) leave(workspaceID uint, c *websocket.Conn) {
	chc.mu.Lock()
	defer chc.mu.Unlock()
	delete(chc.rooms[workspaceID], c)
	if len(chc.rooms[workspaceID]) == 0 {
		delete(chc.rooms, workspaceID)
	}
}

func (chc *ChatController) broadcast(workspaceID uint, out chatOutbound) {
	chc.mu.RLock()
	defer chc.mu.RUnlock()
	for conn := range chc.rooms[workspaceID] {
		if err := conn.WriteJSON(out); err != nil {
			chc.Logger.Printf("Failed to write chat message: %v", err)
		}
	}
}
