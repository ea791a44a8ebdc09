package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tesseract-hub/accreditation-service/internal/config"
	"github.com/tesseract-hub/accreditation-service/internal/events"
	"github.com/tesseract-hub/accreditation-service/internal/handlers"
	"github.com/tesseract-hub/accreditation-service/internal/middleware"
	"github.com/tesseract-hub/accreditation-service/internal/migration"
	"github.com/tesseract-hub/accreditation-service/internal/models"
	"github.com/tesseract-hub/accreditation-service/internal/repository"
	"github.com/tesseract-hub/accreditation-service/internal/scheduler"
	"github.com/tesseract-hub/accreditation-service/internal/services"
	"github.com/tesseract-hub/accreditation-service/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
	if cfg.Server.Mode == "release" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to access database pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)
	defer sqlDB.Close()
	logger.Info("Database connection established")

	// Migrate schema and seed bootstrap data
	if err := migration.Run(db, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis for credential-endpoint throttling
	redisClient := initRedis(cfg, logger)
	defer func() {
		if redisClient != nil {
			redisClient.Close()
		}
	}()

	// Initialize NATS for workflow notifications
	var natsClient *events.Client
	natsClient, err = events.NewClient(events.Config{
		URL:           cfg.NATS.URL,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize NATS, notifications disabled")
		natsClient = nil
	}
	defer func() {
		if natsClient != nil {
			natsClient.Close()
		}
	}()
	publisher := events.NewPublisher(natsClient, logger)

	// Initialize attachment storage
	store, err := storage.NewLocalStore(cfg.Storage.Root, logger)
	if err != nil {
		log.Fatalf("Failed to initialize attachment storage: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	formRepo := repository.NewFormRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Initialize services
	passwordService := services.NewPasswordService()
	totpService := services.NewTOTPService("accreditation-service", passwordService)
	jwtService := services.NewJWTService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.StaffTTLHours)*time.Hour,
		time.Duration(cfg.JWT.SessionTTLHours)*time.Hour,
	)
	auditService := services.NewAuditService(auditRepo, logger)
	authService := services.NewAuthService(userRepo, passwordService, totpService, jwtService, auditService, publisher, logger)
	linkService := services.NewFormLinkService(formRepo, passwordService, jwtService, auditService, cfg.Server.PublicBaseURL, logger)
	formService := services.NewFormService(formRepo, approvalRepo, auditService, publisher, store, logger)
	approvalService := services.NewApprovalService(approvalRepo, formRepo, auditService, publisher, logger)
	configService := services.NewConfigService(configRepo, auditService, logger)

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(authService)
	adminHandlers := handlers.NewAdminHandlers(authService, linkService)
	formHandlers := handlers.NewFormHandlers(linkService, formService)
	reviewHandlers := handlers.NewReviewHandlers(formService, approvalService, authService, auditService)
	auditHandlers := handlers.NewAuditHandlers(auditService)
	configHandlers := handlers.NewConfigHandlers(configService)

	authMW := middleware.NewAuthMiddleware(jwtService, authService)
	limiter := middleware.NewRateLimiter(redisClient, 10, time.Minute, logger)

	// Start the stale link sweeper
	sweeper := scheduler.NewLinkSweeper(
		linkService,
		cfg.Forms.SweepSchedule,
		time.Duration(cfg.Forms.LinkMaxAgeDays)*24*time.Hour,
		logger,
	)
	if err := sweeper.Start(); err != nil {
		logger.WithError(err).Warn("Failed to start link sweeper (continuing without scheduled sweep)")
	} else {
		defer sweeper.Stop()
	}

	// Setup router
	router := setupRouter(cfg, authMW, limiter, publisher, sqlDBPinger(db),
		authHandlers, adminHandlers, formHandlers, reviewHandlers, auditHandlers, configHandlers)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down Accreditation Service...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during server shutdown: %v", err)
		}
	}()

	log.Printf("Starting Accreditation Service on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Println("Accreditation service stopped")
}

// initRedis initializes the Redis client used by the rate limiter. A missing
// or unreachable redis degrades throttling, never availability.
func initRedis(cfg *config.Config, logger *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Failed to connect to Redis, rate limiting disabled")
		client.Close()
		return nil
	}

	logger.Info("Redis connection established")
	return client
}

// sqlDBPinger returns a health probe over the database pool.
func sqlDBPinger(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(
	cfg *config.Config,
	authMW *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	publisher *events.Publisher,
	dbPing func(context.Context) error,
	authHandlers *handlers.AuthHandlers,
	adminHandlers *handlers.AdminHandlers,
	formHandlers *handlers.FormHandlers,
	reviewHandlers *handlers.ReviewHandlers,
	auditHandlers *handlers.AuditHandlers,
	configHandlers *handlers.ConfigHandlers,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.SetupCORS())

	// Health checks
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPing(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		status := gin.H{"status": "ok"}
		if err := publisher.Healthy(); err != nil {
			status["notifications"] = err.Error()
		}
		c.JSON(http.StatusOK, status)
	})

	v1 := router.Group("/api/v1")

	// Staff authentication
	auth := v1.Group("/auth")
	{
		auth.POST("/login", limiter.Limit("login"), authHandlers.Login)

		authed := auth.Group("", authMW.StaffRequired())
		authed.GET("/me", authHandlers.Me)
		authed.POST("/password", authHandlers.ChangePassword)
		authed.POST("/2fa/setup", authHandlers.SetupTwoFactor)
		authed.POST("/2fa/enable", authHandlers.EnableTwoFactor)
	}

	// External submission surface
	external := v1.Group("/external")
	{
		external.POST("/auth", limiter.Limit("form-auth"), formHandlers.Authenticate)

		session := external.Group("", authMW.FormSessionRequired())
		session.GET("/form", formHandlers.GetMyForm)
		session.POST("/form/submit", formHandlers.Submit)
		session.POST("/form/attachments", formHandlers.UploadAttachment)
	}

	// Staff workflow surface
	staff := v1.Group("", authMW.StaffRequired())
	{
		forms := staff.Group("/forms")
		forms.GET("", authMW.RequireRole(models.RoleViewer), reviewHandlers.ListForms)
		forms.GET("/:id", authMW.RequireRole(models.RoleViewer), reviewHandlers.GetForm)
		forms.GET("/:id/history", authMW.RequireRole(models.RoleViewer), reviewHandlers.History)
		forms.GET("/:id/attachments/:attachmentId", authMW.RequireRole(models.RoleViewer), reviewHandlers.DownloadAttachment)
		forms.GET("/:id/certificate", authMW.RequireRole(models.RoleViewer), reviewHandlers.ExportCertificate)
		forms.POST("/:id/review", authMW.RequireRole(models.RoleApprover), reviewHandlers.BeginReview)
		forms.POST("/:id/decision", authMW.RequireRole(models.RoleApprover), reviewHandlers.Decide)
		forms.POST("/links", authMW.RequireRole(models.RoleManager), adminHandlers.IssueLink)

		staff.GET("/dashboard", authMW.RequireRole(models.RoleViewer), reviewHandlers.Dashboard)

		audit := staff.Group("/audit", authMW.RequireRole(models.RoleManager))
		audit.GET("", auditHandlers.List)
		audit.GET("/:id", auditHandlers.GetByID)
		audit.GET("/resource/:type/:id", auditHandlers.ResourceHistory)

		admin := staff.Group("/admin", authMW.RequireRole(models.RoleAdministrator))
		admin.POST("/users", adminHandlers.CreateUser)
		admin.GET("/users", adminHandlers.ListUsers)
		admin.GET("/users/:id", adminHandlers.GetUser)
		admin.PATCH("/users/:id", adminHandlers.UpdateUser)

		cfgGroup := staff.Group("/config")
		cfgGroup.GET("", configHandlers.List)
		cfgGroup.GET("/:key", configHandlers.Get)
		cfgGroup.PUT("/:key", authMW.RequireRole(models.RoleAdministrator), configHandlers.Set)
	}

	return router
}
