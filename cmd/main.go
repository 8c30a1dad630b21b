package main

import (
	"taskhook-service/internal/handler"
	"taskhook-service/internal/middleware"
	"taskhook-service/pkg/config"
	"taskhook-service/pkg/database"
	"taskhook-service/pkg/jwtutil"
	"taskhook-service/pkg/logger"
	"taskhook-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("taskhook-service")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting taskhook service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize outbound clients (profile lookup, notification mail)
	handler.Init(cfg)
	log.Info("Outbound clients initialized")

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Platform webhooks - authenticated by signature, not by JWT.
	// Chatwork, Teams and LINE route by per-tenant URL token; Slack routes
	// by team_id, Lark by the verification token inside the payload.
	webhook := e.Group("/webhook")
	webhook.POST("/chatwork/:token", handler.ChatworkWebhook)
	webhook.POST("/teams/:token", handler.TeamsWebhook)
	webhook.POST("/lark", handler.LarkWebhook)
	webhook.POST("/slack", handler.SlackWebhook)
	webhook.POST("/line/:token", handler.LineWebhook)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	tasks := api.Group("/tasks")
	tasks.GET("", handler.ListTasks)
	tasks.POST("", handler.CreateTask)
	tasks.DELETE("/completed", handler.DeleteCompletedTasks)
	tasks.PATCH("/:id", handler.UpdateTask)
	tasks.DELETE("/:id", handler.DeleteTask)

	rooms := api.Group("/rooms")
	rooms.GET("", handler.ListRooms)
	rooms.PATCH("/:id", handler.UpdateRoom)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
