package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ankit76350/whistleblower/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway is origin-agnostic like the hosted one; connections are
	// scoped by reportId, which is itself unguessable for reporters.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and registers it on the hub. The
// gateway identifies the thread and role from query parameters only, exactly
// like the hosted connect handler.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	reportID := c.Query("reportId")
	userType := c.Query("userType")
	if reportID == "" || userType == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "reportId and userType are required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	client := &WSClient{
		ReportID: reportID,
		UserType: userType,
		Conn:     conn,
		Hub:      h.Hub,
		Send:     make(chan models.LiveEvent, 256),
	}
	h.Hub.RegisterCh <- client
	client.Run()
}
