package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/db"
	"github.com/courseloom/courseloom-backend/internal/handlers"
	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/observability"
	"github.com/courseloom/courseloom-backend/internal/repos"
	"github.com/courseloom/courseloom-backend/internal/server"
	"github.com/courseloom/courseloom-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using process environment")
	}
	cfg := config.Load(log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "courseloom-backend",
		Environment: cfg.Env,
	})
	if otelShutdown != nil {
		defer otelShutdown(context.Background())
	}

	// Postgres
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	lectureRepo := repos.NewLectureRepo(thePG, log)
	purchaseRepo := repos.NewPurchaseRepo(thePG, log)
	progressRepo := repos.NewCourseProgressRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	mediaService, err := services.NewMediaService(log, cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		log.Warn("Could not init MediaService, media routes will fail", "error", err)
	}
	gateway, err := services.NewStripeGateway(log, cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if err != nil {
		log.Error("Could not init payment gateway", "error", err)
		os.Exit(1)
	}
	var courseCache services.CourseCache
	if cfg.RedisAddr != "" {
		courseCache, err = services.NewCourseCache(log, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("Could not init course cache, serving uncached", "error", err)
			courseCache = nil
		}
	}

	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)
	userService := services.NewUserService(thePG, log, userRepo, courseRepo)
	courseService := services.NewCourseService(thePG, log, courseRepo, mediaService, courseCache)
	lectureService := services.NewLectureService(thePG, log, courseRepo, lectureRepo, mediaService)
	progressService := services.NewProgressService(thePG, log, courseRepo, lectureRepo, progressRepo)
	purchaseService := services.NewPurchaseService(thePG, log, cfg, gateway, userRepo, courseRepo, lectureRepo, purchaseRepo)

	// Handlers
	log.Info("Setting up handlers...")
	healthcheckHandler := handlers.NewHealthcheckHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	courseHandler := handlers.NewCourseHandler(courseService, mediaService)
	lectureHandler := handlers.NewLectureHandler(lectureService)
	progressHandler := handlers.NewProgressHandler(progressService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)

	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	router := server.NewRouter(server.RouterConfig{
		FrontendURL:        cfg.FrontendURL,
		HealthcheckHandler: healthcheckHandler,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		UserHandler:        userHandler,
		CourseHandler:      courseHandler,
		LectureHandler:     lectureHandler,
		ProgressHandler:    progressHandler,
		PurchaseHandler:    purchaseHandler,
	})

	log.Info("Starting server", "port", cfg.Port, "env", cfg.Env)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
