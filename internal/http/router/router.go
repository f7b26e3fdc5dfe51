package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/stroyhub-backend/internal/config"
	"github.com/ignatzorin/stroyhub-backend/internal/http/handlers"
	"github.com/ignatzorin/stroyhub-backend/internal/http/middleware"
	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	conversationHandler *handlers.ConversationHandler,
	notificationHandler *handlers.NotificationHandler,
	reviewHandler *handlers.ReviewHandler,
	propertyHandler *handlers.PropertyHandler,
	statsHandler *handlers.StatsHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	seedHandler *handlers.SeedHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	if seedHandler != nil && cfg.Env == "development" {
		api.POST("/seed", seedHandler.Seed)
	}

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/me", authHandler.Me)
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", authHandler.DeleteSession)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/properties", propertyHandler.List)
	api.GET("/properties/:id", middleware.UUIDValidator("id"), propertyHandler.Get)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByUser)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), reviewHandler.GetUserRating)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/stats", statsHandler.GetMyStats)

		// Заявки и их жизненный цикл
		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests/my", requestHandler.ListMy)
		protected.GET("/requests/available",
			middleware.RequireRole(models.RoleProvider, models.RoleAdmin),
			requestHandler.ListAvailable)
		protected.GET("/requests/:id", middleware.UUIDValidator("id"), requestHandler.Get)
		protected.GET("/requests/:id/history", middleware.UUIDValidator("id"), requestHandler.History)
		protected.POST("/requests/:id/accept", middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider), requestHandler.Accept)
		protected.POST("/requests/:id/reject", middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider), requestHandler.Reject)
		protected.POST("/requests/:id/quote", middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider), requestHandler.SubmitQuote)
		protected.POST("/requests/:id/progress", middleware.UUIDValidator("id"),
			middleware.RequireRole(models.RoleProvider), requestHandler.RecordProgress)
		protected.POST("/requests/:id/complete", middleware.UUIDValidator("id"), requestHandler.Complete)
		protected.POST("/requests/:id/cancel", middleware.UUIDValidator("id"), requestHandler.Cancel)

		// Отзывы
		protected.POST("/requests/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.GET("/requests/:id/can-review", middleware.UUIDValidator("id"), reviewHandler.CanReview)

		// Диалоги
		protected.POST("/conversations", conversationHandler.Start)
		protected.GET("/conversations", conversationHandler.List)
		protected.GET("/conversations/:id", middleware.UUIDValidator("id"), conversationHandler.Get)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), conversationHandler.SendMessage)
		protected.POST("/conversations/:id/read", middleware.UUIDValidator("id"), conversationHandler.MarkRead)

		// Уведомления
		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)

		// Объявления
		protected.POST("/properties", propertyHandler.Create)
		protected.GET("/properties/my", propertyHandler.ListMy)
		protected.PUT("/properties/:id", middleware.UUIDValidator("id"), propertyHandler.Update)
		protected.DELETE("/properties/:id", middleware.UUIDValidator("id"), propertyHandler.Archive)
		protected.POST("/properties/:id/photos", middleware.UUIDValidator("id"), propertyHandler.UploadPhoto)
	}

	return r
}
