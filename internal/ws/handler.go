package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teamgrid/chat-service/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is enforced at the gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns the GET /api/v1/chats/ws upgrade endpoint. The token
// travels as a query parameter because browsers cannot set headers on
// a WebSocket upgrade. An invalid token still upgrades, so the client
// gets a parseable error frame before the close.
func Handler(hub *Hub, jwtSecret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		claims, authErr := auth.ParseToken(token, jwtSecret)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade failed", zap.Error(err))
			return
		}

		if authErr != nil {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteJSON(ServerFrame{
				Type:  FrameError,
				Error: &ErrorInfo{Code: "UNAUTHORIZED", Message: "invalid or expired token"},
			})
			conn.Close()
			return
		}

		client := newClient(claims.UserID, conn, hub, logger)
		hub.register(client)

		pongWait := hub.pingInterval + 10*time.Second
		go client.writePump(hub.pingInterval)
		go client.readPump(pongWait)
	}
}
