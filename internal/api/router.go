// Package api wires the REST surface of the chat service. Route order
// matters: /ws and the messages/read path must be registered before the
// parameterized /:id routes or gin will shadow them.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/db"
	"github.com/teamgrid/chat-service/internal/metrics"
	"github.com/teamgrid/chat-service/internal/middleware"
	"github.com/teamgrid/chat-service/internal/service"
)

// RouterDeps collects everything the router needs. The WebSocket entry
// point is passed as a plain gin.HandlerFunc so this package does not
// import the hub.
type RouterDeps struct {
	Chats     *service.ChatService
	Members   *service.MemberService
	Messages  *service.MessageService
	WS        gin.HandlerFunc
	DB        *db.DB
	Metrics   *metrics.ServiceMetrics
	JWTSecret string
	Logger    *zap.Logger
}

func NewRouter(env string, deps RouterDeps) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
	}

	router.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	chatHandler := NewChatHandler(deps.Chats, deps.Logger)
	memberHandler := NewMemberHandler(deps.Members, deps.Logger)
	messageHandler := NewMessageHandler(deps.Messages, deps.Logger)

	chats := router.Group("/api/v1/chats")
	{
		// The upgrade handler authenticates via query token itself.
		chats.GET("/ws", deps.WS)

		authed := chats.Group("")
		authed.Use(middleware.AuthMiddleware(deps.JWTSecret))

		authed.POST("", chatHandler.Create)
		authed.GET("", chatHandler.List)

		authed.PUT("/:id/messages/read", messageHandler.MarkAsRead)
		authed.PUT("/:id/messages/:message_id", messageHandler.Update)
		authed.DELETE("/:id/messages/:message_id", messageHandler.Delete)
		authed.GET("/:id/messages", messageHandler.List)
		authed.POST("/:id/messages", messageHandler.Create)

		authed.POST("/:id/members", memberHandler.Add)
		authed.GET("/:id/members", memberHandler.List)
		authed.PUT("/:id/members/:user_id", memberHandler.UpdateRole)
		authed.DELETE("/:id/members/:user_id", memberHandler.Remove)

		authed.GET("/:id", chatHandler.Get)
		authed.PUT("/:id", chatHandler.Update)
		authed.DELETE("/:id", chatHandler.Delete)
	}

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept-Encoding, Authorization, X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
