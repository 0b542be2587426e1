package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Viewers connect from the SaaS front end on another origin.
		return true
	},
}

// HandleViewerSocket upgrades an authenticated viewer request and
// attaches the connection to the case room.
func HandleViewerSocket(hub *Hub, c echo.Context, caseID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := NewClient(hub, conn, caseID, logger)

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.Serve()

	return nil
}
