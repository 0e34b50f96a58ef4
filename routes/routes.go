package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	controller "boardly/controllers"
	"boardly/middleware"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)
	auth.Post("/verify-email", controller.VerifyEmail)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Post("/logout", controller.Logout)
	protectedAuth.Post("/change-password", controller.ChangePassword)
	protectedAuth.Get("/me", controller.GetCurrentUser)

	// Billing routes
	billing := app.Group("/billing")
	billing.Get("/plans", controller.GetPlans)
	billing.Post("/webhook", controller.HandleBillingWebhook)

	protectedBilling := billing.Group("", middleware.Protected())
	protectedBilling.Get("/current", controller.GetCurrentPlan)
	protectedBilling.Post("/checkout", controller.CreateCheckoutSession)
	protectedBilling.Post("/cancel", controller.CancelSubscription)
	protectedBilling.Get("/transactions", controller.GetTransactions)

	authLogger.Println("Authentication and billing routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize controllers with their respective loggers
	workspaceController := controller.NewWorkspaceController(db, log.New(os.Stdout, "WORKSPACE: ", log.LstdFlags))
	memberController := controller.NewMemberController(db, log.New(os.Stdout, "MEMBER: ", log.LstdFlags))
	boardController := controller.NewBoardController(db, log.New(os.Stdout, "BOARD: ", log.LstdFlags))
	cardController := controller.NewCardController(db, log.New(os.Stdout, "CARD: ", log.LstdFlags))
	chatController := controller.NewChatController(db, log.New(os.Stdout, "CHAT: ", log.LstdFlags))
	notificationController := controller.NewNotificationController(db, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Workspace routes
	workspace := api.Group("/workspaces")
	workspace.Post("/", workspaceController.CreateWorkspace)
	workspace.Get("/", workspaceController.GetWorkspaces)
	workspace.Get("/:id", workspaceController.GetWorkspace)
	workspace.Get("/:id/role", workspaceController.GetWorkspaceRole)
	workspace.Put("/:id", workspaceController.UpdateWorkspace)
	workspace.Delete("/:id", workspaceController.DeleteWorkspace)

	// Member and invitation routes
	workspace.Get("/:id/members", memberController.ListMembers)
	workspace.Put("/:id/members/:userID", memberController.ChangeMemberRole)
	workspace.Delete("/:id/members/:userID", memberController.RemoveMember)
	workspace.Post("/:id/invitations", middleware.InviteRateLimiter(), memberController.InviteMember)
	workspace.Get("/:id/invitations", memberController.ListInvitations)
	workspace.Delete("/:id/invitations/:invitationID", memberController.CancelInvitation)
	api.Post("/invitations/accept", memberController.AcceptInvitation)

	// Board and list routes
	workspace.Post("/:id/boards", boardController.CreateBoard)
	workspace.Get("/:id/boards", boardController.GetBoards)
	board := api.Group("/boards")
	board.Get("/:boardID", boardController.GetBoard)
	board.Put("/:boardID", boardController.UpdateBoard)
	board.Delete("/:boardID", boardController.DeleteBoard)
	board.Post("/:boardID/lists", boardController.CreateList)
	list := api.Group("/lists")
	list.Put("/:listID", boardController.UpdateList)
	list.Delete("/:listID", boardController.DeleteList)

	// Card routes
	list.Post("/:listID/cards", cardController.CreateCard)
	card := api.Group("/cards")
	card.Get("/:cardID", cardController.GetCard)
	card.Put("/:cardID", cardController.UpdateCard)
	card.Delete("/:cardID", cardController.DeleteCard)
	card.Post("/:cardID/assignees", cardController.AssignCard)
	card.Delete("/:cardID/assignees/:userID", cardController.UnassignCard)
	card.Post("/:cardID/comments", cardController.CreateComment)
	card.Delete("/:cardID/comments/:commentID", cardController.DeleteComment)

	// Chat routes
	workspace.Get("/:id/chat/messages", chatController.GetChatHistory)
	workspace.Get("/:id/chat/ws", websocket.New(func(c *websocket.Conn) {
		chatController.HandleChatWS(c)
	}))

	// Notification routes
	notification := api.Group("/notifications")
	notification.Get("/", notificationController.GetNotifications)
	notification.Put("/read-all", notificationController.MarkAllNotificationsRead)
	notification.Put("/:notificationID/read", notificationController.MarkNotificationRead)
}

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup auth routes
	SetupAuthRoutes(app, db)

	// Setup API routes
	SetupAPIRoutes(app, db)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
