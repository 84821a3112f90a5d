package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"

	"github.com/rideinzw/dispatch/internal/api/middleware"
	"github.com/rideinzw/dispatch/internal/events"
	"github.com/rideinzw/dispatch/pkg/logger"
	"github.com/rideinzw/dispatch/pkg/realtime"
)

// HandleWebSocket handles GET /v1/ws. The route sits behind auth, so
// identity comes from the verified token, not from query parameters.
func (h *Handlers) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)
	role := middleware.Role(c)

	upgrader := gorilla.Upgrader{
		ReadBufferSize:  h.WebSocket.ReadBufferSize,
		WriteBufferSize: h.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("Failed to upgrade to WebSocket", logger.Err(err))
		return
	}

	client := realtime.NewClient(h.Hub, conn, userID.String(), string(role), h.Logger)
	h.Hub.Register(client)

	// Everyone hears their own events without an explicit subscribe
	client.Subscribe(events.TopicUser(userID))

	go client.WritePump()
	go client.ReadPump()
}
