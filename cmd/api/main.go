package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"foliomart/internal/config"
	"foliomart/internal/database"
	"foliomart/internal/handlers"
	"foliomart/internal/logger"
	"foliomart/internal/middleware"
	"foliomart/internal/notifier"
	"foliomart/internal/services"
	"foliomart/internal/token"
	"foliomart/internal/validator"

	_ "foliomart/internal/docs" // Import swagger docs
)

// @title           Foliomart API
// @version         1.0
// @description     Foliomart is a portfolio template marketplace. Users purchase portfolio templates, receive bills with recoverable claim tokens, and manage the bill lifecycle.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey SessionAuth
// @in header
// @name Authorization
// @description Session JWT, sent automatically as an HTTP-only cookie by browsers. Non-browser clients may send it as "Bearer <token>".

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Outbound email: real SMTP when configured, logged no-op otherwise
	var mailer notifier.Notifier
	if appConfig.SMTPHost != "" {
		mailer, err = notifier.NewSMTPNotifier(appConfig)
		if err != nil {
			return fmt.Errorf("failed to create SMTP notifier: %w", err)
		}
	} else {
		log.Warn("SMTP_HOST not set, outbound email disabled")
		mailer = notifier.Noop{}
	}

	// Initialize services
	db := dbManager.DB()
	tokens := token.NewService(appConfig.ResetTokenTTL)
	userService := services.NewUserService(db, tokens, mailer, appConfig.BaseURL)
	portfolioService := services.NewPortfolioService(db)
	billService := services.NewBillService(db, tokens)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, auditService)
	billHandler := handlers.NewBillHandler(billService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.PUT("/password/reset/:token", authHandler.ResetPassword)

	// Portfolio catalog is public for browsing
	v1.GET("/portfolios", portfolioHandler.ListPortfolios)
	v1.GET("/portfolios/:id", portfolioHandler.GetPortfolio)

	// The claim token alone authorizes recovery, no session required
	v1.POST("/bills/recover", billHandler.RecoverBill)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.PUT("/profile/password", authHandler.ChangePassword)

	// Bill routes
	bills := protected.Group("/bills")
	bills.POST("", billHandler.CreateBill)
	bills.GET("", billHandler.ListBills)
	bills.GET("/:id", billHandler.GetBill)
	bills.PATCH("/:id/status", billHandler.UpdateBillStatus)
	bills.DELETE("/:id", billHandler.DeleteBill)

	// Admin routes
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/portfolios", portfolioHandler.CreatePortfolio)
	admin.PUT("/portfolios/:id", portfolioHandler.UpdatePortfolio)
	admin.DELETE("/portfolios/:id", portfolioHandler.DeletePortfolio)

	log.Infof("Starting Foliomart backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
