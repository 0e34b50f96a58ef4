package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"boardly/config"
	controller "boardly/controllers"
	"boardly/middleware"
	"boardly/routes"
	"boardly/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "BOARDLY: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Configure the Stripe client
	controller.InitStripe()

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	invitationWorker := worker.NewInvitationWorker(config.DB, log.New(os.Stdout, "INVITE: ", log.LstdFlags))
	go invitationWorker.Start(ctx)

	planWorker := worker.NewPlanWorker(config.DB, log.New(os.Stdout, "PLAN: ", log.LstdFlags))
	go planWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
