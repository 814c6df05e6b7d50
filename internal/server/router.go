package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/courseloom/courseloom-backend/internal/handlers"
	"github.com/courseloom/courseloom-backend/internal/middleware"
)

type RouterConfig struct {
	FrontendURL        string
	HealthcheckHandler *handlers.HealthcheckHandler
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	UserHandler        *handlers.UserHandler
	CourseHandler      *handlers.CourseHandler
	LectureHandler     *handlers.LectureHandler
	ProgressHandler    *handlers.ProgressHandler
	PurchaseHandler    *handlers.PurchaseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("courseloom-backend"))

	allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if cfg.FrontendURL != "" {
		allowOrigins = append(allowOrigins, cfg.FrontendURL)
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)

	api := router.Group("/api")

	// Public
	user := api.Group("/user")
	{
		user.POST("/register", cfg.AuthHandler.Register)
		user.POST("/login", cfg.AuthHandler.Login)
	}
	// The webhook authenticates via the gateway signature, not a bearer
	// token; it must stay outside RequireAuth.
	api.POST("/purchase/webhook", cfg.PurchaseHandler.Webhook)
	// The public storefront listing.
	api.GET("/course/published-course", cfg.CourseHandler.GetPublished)

	// Protected
	auth := cfg.AuthMiddleware.RequireAuth()

	userAuth := api.Group("/user", auth)
	{
		userAuth.POST("/refresh", cfg.AuthHandler.Refresh)
		userAuth.POST("/logout", cfg.AuthHandler.Logout)
		userAuth.GET("/profile", cfg.UserHandler.GetMe)
	}

	course := api.Group("/course", auth)
	{
		course.POST("", cfg.CourseHandler.Create)
		course.GET("", cfg.CourseHandler.GetCreatorCourses)
		course.GET("/search", cfg.CourseHandler.Search)
		course.POST("/upload-video", cfg.CourseHandler.UploadVideo)
		course.GET("/:courseId", cfg.CourseHandler.GetByID)
		course.PUT("/:courseId", cfg.CourseHandler.Edit)
		course.PATCH("/:courseId", cfg.CourseHandler.TogglePublish)

		course.POST("/:courseId/lecture", cfg.LectureHandler.Create)
		course.GET("/:courseId/lecture", cfg.LectureHandler.GetCourseLectures)
		course.POST("/:courseId/lecture/:lectureId", cfg.LectureHandler.Edit)
		course.GET("/lecture/:lectureId", cfg.LectureHandler.GetByID)
		course.DELETE("/lecture/:lectureId", cfg.LectureHandler.Remove)
	}

	progress := api.Group("/progress", auth)
	{
		progress.GET("/:courseId", cfg.ProgressHandler.GetCourseProgress)
		progress.POST("/:courseId/lecture/:lectureId/view", cfg.ProgressHandler.RecordLectureViewed)
		progress.POST("/:courseId/complete", cfg.ProgressHandler.MarkCompleted)
		progress.POST("/:courseId/incomplete", cfg.ProgressHandler.MarkIncompleted)
	}

	purchase := api.Group("/purchase", auth)
	{
		purchase.POST("/checkout/create-checkout-session", cfg.PurchaseHandler.CreateCheckoutSession)
		purchase.GET("/course/:courseId/detail-with-status", cfg.PurchaseHandler.GetCourseDetailWithStatus)
		purchase.GET("", cfg.PurchaseHandler.GetCompletedPurchases)
	}

	return router
}
