package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogpulse/internal/api/handlers"
	"blogpulse/internal/metrics"
	"blogpulse/internal/middleware"
	"blogpulse/internal/ratelimit"
	"blogpulse/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, limiter *ratelimit.FixedWindowLimiter) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	chatHandler := handlers.NewChatHandler(services.Chat)
	wsHandler := handlers.NewWebSocketHandler(services.Gateway)

	r.Use(metrics.GinMiddleware())

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 用戶認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// Prometheus 指標
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// WebSocket 連接點，憑證在升級後的握手流程裡驗證
		api.GET("/ws/posts", wsHandler.HandleWebSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 房間在線統計
		authorized.GET("/rooms/stats", wsHandler.RoomStats)

		// AI 對話相關
		chat := authorized.Group("/chat")
		{
			chat.POST("/conversations", chatHandler.CreateConversation)
			chat.GET("/conversations", chatHandler.ListConversations)
			chat.GET("/conversations/:id", chatHandler.GetConversation)
			chat.DELETE("/conversations/:id", chatHandler.DeleteConversation)

			// 訊息端點套限流，避免上游補全被刷爆
			messages := chat.Group("/")
			messages.Use(middleware.RateLimitMiddleware(limiter))
			{
				messages.POST("/conversations/:id/messages", chatHandler.SendMessage)
				messages.POST("/conversations/:id/messages/stream", chatHandler.StreamMessage)
			}
		}
	}
}
