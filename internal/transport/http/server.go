package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "legischat/internal/app"
	"legischat/internal/bootstrap"
	"legischat/internal/repository"
	"legischat/internal/transport/http/handler"
	"legischat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(app.ChatService)
	ingestHandler := handler.NewIngestHandler(
		app.Coordinator,
		repository.NewIngestRunRepository(app.MySQL),
		app.Config.Crawler.MaxDepth,
	)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("", chatHandler.SendTurn)
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.GET("/conversations/:id", chatHandler.GetConversation)

	ingestGroup := v1.Group("/ingest")
	ingestGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	ingestGroup.POST("", ingestHandler.Ingest)
	ingestGroup.GET("/urls", ingestHandler.ListURLs)
	ingestGroup.GET("/runs", ingestHandler.ListRuns)

	return router
}
