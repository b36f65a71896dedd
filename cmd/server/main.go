package main

import (
	"log"

	"github.com/lordofkekss/EFE/internal/config"
	"github.com/lordofkekss/EFE/internal/database"
	"github.com/lordofkekss/EFE/internal/handlers"
	"github.com/lordofkekss/EFE/internal/middleware"
	"github.com/lordofkekss/EFE/internal/models"
	"github.com/lordofkekss/EFE/internal/services"
	"github.com/lordofkekss/EFE/internal/ws"

	_ "github.com/lordofkekss/EFE/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           EFE School Platform API
// @version         1.0
// @description     Classes, courses, content, star rewards and teacher-hosted live lessons
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	classService := services.NewClassService(db)
	courseService := services.NewCourseService(db, classService)
	contentService := services.NewContentService(db)
	starService := services.NewStarService(db)
	rewardService := services.NewRewardService(db, starService)
	renderer := services.NewSlideRenderer()
	liveService := services.NewLiveService(db, contentService, classService, renderer)

	if err := authService.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		log.Fatalf("failed to create initial admin: %v", err)
	}

	authHandler := handlers.NewAuthHandler(authService)
	classHandler := handlers.NewClassHandler(classService, starService)
	courseHandler := handlers.NewCourseHandler(courseService)
	contentHandler := handlers.NewContentHandler(courseService, contentService, starService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	documentHandler := handlers.NewDocumentHandler(db, courseService, cfg.UploadFolder)
	liveHandler := handlers.NewLiveHandler(liveService, courseService, hub)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/live", middleware.JWTAuth(authService), liveHandler.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", optionalAuth(authService), authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.PUT("/password", middleware.JWTAuth(authService), authHandler.ChangePassword)
			auth.GET("/me", middleware.JWTAuth(authService), authHandler.Me)
		}

		classes := api.Group("/classes")
		classes.Use(middleware.JWTAuth(authService))
		{
			classes.GET("", classHandler.ListClasses)
			classes.POST("", middleware.RolesRequired(models.RoleTeacher, models.RoleAdmin), classHandler.CreateClass)
			classes.POST("/join", classHandler.JoinClass)
			classes.GET("/:id/members", classHandler.ListMembers)
		}

		stars := api.Group("/stars")
		stars.Use(middleware.JWTAuth(authService))
		{
			stars.GET("/balance", classHandler.GetBalance)
			stars.POST("/grant", middleware.RolesRequired(models.RoleTeacher, models.RoleAdmin), classHandler.GrantStars)
		}

		courses := api.Group("/courses")
		courses.Use(middleware.JWTAuth(authService))
		{
			courses.GET("", courseHandler.ListCourses)
			courses.POST("", middleware.RolesRequired(models.RoleTeacher, models.RoleAdmin), courseHandler.CreateCourse)
			courses.GET("/:id", courseHandler.GetCourse)

			courses.POST("/:id/content", contentHandler.CreateNode)
			courses.PUT("/:id/sections/:node_id", contentHandler.SaveSection)
			courses.PUT("/:id/reorder", contentHandler.Reorder)
			courses.POST("/:id/content/:node_id/release", contentHandler.Release)
			courses.POST("/:id/exercises/:node_id/submit", contentHandler.SubmitExercise)

			courses.POST("/:id/documents", documentHandler.Upload)
			courses.POST("/:id/live", liveHandler.HostSession)
		}

		documents := api.Group("/documents")
		documents.Use(middleware.JWTAuth(authService))
		{
			documents.GET("/:id", documentHandler.Download)
		}

		rewards := api.Group("/rewards")
		rewards.Use(middleware.JWTAuth(authService))
		{
			rewards.GET("", rewardHandler.ListCatalog)
			rewards.POST("", middleware.RolesRequired(models.RoleTeacher, models.RoleAdmin), rewardHandler.UpsertCatalog)
			rewards.POST("/unlock", rewardHandler.Unlock)
			rewards.GET("/unlocks", rewardHandler.ListUnlocks)
		}

		live := api.Group("/live")
		live.Use(middleware.JWTAuth(authService))
		{
			live.GET("/course/:id", liveHandler.CourseLiveState)
			live.GET("/resolve", liveHandler.ResolveJoinCode)
			live.POST("/sessions/:id/end", liveHandler.EndSession)
		}
	}

	addr := ":" + cfg.ServerPort
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// optionalAuth attaches the caller identity when a token is present but
// lets anonymous requests through (admin bootstrap registration).
func optionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) > 7 && header[:7] == "Bearer " {
			if userID, role, err := authService.ValidateToken(header[7:]); err == nil {
				c.Set("user_id", userID)
				c.Set("role", role)
			}
		}
		c.Next()
	}
}
