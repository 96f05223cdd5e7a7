package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sosmed_backend/database"
	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/config"
	"sosmed_backend/internal/events"
	"sosmed_backend/internal/handlers"
	"sosmed_backend/internal/imageprocessor"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/middleware"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/routes"
	"sosmed_backend/internal/services"
	"sosmed_backend/internal/storage"
	"sosmed_backend/internal/validator"
	"sosmed_backend/pkg/apperrors"
	"sosmed_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies - внешние компоненты, которые тесты подменяют своими
type Dependencies struct {
	Storage   storage.Storage
	FeedCache cache.FeedCache
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	// Realtime - nil, если WebSocket выключен
	Realtime *ws.Manager
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Env == "development")

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Env)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// без админа сервер не стартует: проблема с БД
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	deps, err := NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", "error", err)
	}
	defer deps.Publisher.Close()

	ginRouter := SetupRouter(cfg, gormDB, sqlDB, deps)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// NewDependencies поднимает хранилище, кэш ленты, публикацию событий и метрики.
// Redis и NATS необязательны: без адреса используются no-op реализации.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	deps := &Dependencies{
		Storage:   storageInstance,
		FeedCache: cache.NewNoopFeedCache(),
		Publisher: events.NewNoopPublisher(),
		Metrics:   metrics.New(),
	}

	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		deps.FeedCache = cache.NewRedisFeedCache(client, time.Duration(cfg.Redis.TTL)*time.Second)
		logger.Info("Feed cache enabled", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("Redis is not configured, feed cache disabled")
	}

	if cfg.NATS.URL != "" {
		publisher, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return nil, err
		}
		deps.Publisher = publisher
		logger.Info("Event publishing enabled", "url", cfg.NATS.URL)
	} else {
		logger.Warn("NATS is not configured, domain events are not published")
	}

	if cfg.Realtime.Enabled {
		deps.Realtime = ws.NewManager(ws.Options{
			AllowedOrigins: cfg.Server.CORSOrigins,
			SendBuffer:     cfg.Realtime.SendBuffer,
		})
		go deps.Realtime.Run()
		deps.Publisher = events.NewFanoutPublisher(deps.Publisher, deps.Realtime)
		logger.Info("Realtime feed enabled", "path", "/v1/ws")
	}

	return deps, nil
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, sqlDB *sql.DB, deps *Dependencies) *gin.Engine {
	// 1. Инициализируем сервисы
	serviceContainer := initializeServices(cfg, deps)

	// 2. Инициализируем хэндлеры
	appHandlers := initializeHandlers(cfg, serviceContainer, deps, sqlDB)

	// 3. Инициализируем Gin
	ginRouter := initializeGinRouter(cfg, gormDB, deps.Metrics)

	// 4. Регистрация маршрутов
	routes.RegisterRoutes(ginRouter, appHandlers, deps.Metrics)

	return ginRouter
}

func initializeServices(cfg *config.Config, deps *Dependencies) *services.ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository()
	postRepo := repositories.NewPostRepository()
	mediaRepo := repositories.NewMediaRepository()
	commentRepo := repositories.NewCommentRepository()
	likeRepo := repositories.NewLikeRepository()

	// --- Сервисы ---
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	processor := imageprocessor.NewProcessor(cfg.Upload.ImageQuality, cfg.Upload.ThumbnailSize)

	uploadService := services.NewUploadService(deps.Storage, processor, cfg.Upload)
	authService := services.NewAuthService(userRepo, tokens, deps.Metrics)
	userService := services.NewUserService(userRepo, uploadService, cfg.Upload.AvatarMaxSize)
	postService := services.NewPostService(postRepo, mediaRepo, likeRepo, uploadService, deps.FeedCache, deps.Publisher, deps.Metrics, cfg.Upload.PostMaxSize)
	commentService := services.NewCommentService(commentRepo, postRepo, deps.FeedCache, deps.Publisher, deps.Metrics)
	likeService := services.NewLikeService(likeRepo, postRepo, deps.FeedCache, deps.Publisher, deps.Metrics)

	return &services.ServiceContainer{
		AuthService:    authService,
		UserService:    userService,
		PostService:    postService,
		CommentService: commentService,
		LikeService:    likeService,
		UploadService:  uploadService,
	}
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer, deps *Dependencies, sqlDB *sql.DB) *handlers.AppHandlers {
	customValidator := validator.New()
	authenticator := middleware.NewAuthenticator(svc.AuthService)
	baseHandler := handlers.NewBaseHandler(customValidator, authenticator)

	appHandlers := &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, svc.AuthService, svc.UserService),
		PostHandler:    handlers.NewPostHandler(baseHandler, svc.PostService, cfg.Upload),
		CommentHandler: handlers.NewCommentHandler(baseHandler, svc.CommentService),
		LikeHandler:    handlers.NewLikeHandler(baseHandler, svc.LikeService),
		UserHandler:    handlers.NewUserHandler(baseHandler, svc.UserService, cfg.Upload),
		HealthHandler:  handlers.NewHealthHandler(baseHandler, sqlDB),
	}

	if deps.Realtime != nil {
		appHandlers.WSHandler = handlers.NewWSHandler(baseHandler, deps.Realtime)
	}

	// S3/R2 отдают файлы по своим URL
	if _, ok := deps.Storage.(*storage.LocalStorage); ok {
		appHandlers.FileHandler = handlers.NewFileHandler(baseHandler, deps.Storage)
	}

	return appHandlers
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, m *metrics.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	admin := cfg.FirstAdmin
	if admin.Email == "" || admin.Password == "" {
		logger.Warn("first_admin.email or first_admin.password is not set. Skipping admin seeding.")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(admin.Email))
	username := admin.Username
	if username == "" {
		username = "admin"
	}
	name := admin.Name
	if name == "" {
		name = "Administrator"
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var existing models.User
	result := tx.Unscoped().Where("email = ? OR username = ?", email, username).First(&existing)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", email)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found. Creating first admin...", "email", email, "username", username)

	hashedPassword, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Name:         name,
		Email:        email,
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
	}
	if err := tx.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}
	logger.Info("✅ Successfully created first admin user", "email", email)
	return nil
}
