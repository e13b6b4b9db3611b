package handlers

import (
	"log"
	"net/http"

	"studyhub/internal/auth"
	"studyhub/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// RealtimeTicket mints a short-lived ticket carrying the authenticated
// username into the WebSocket handshake
func RealtimeTicket(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	ticket, err := auth.GenerateRealtimeTicket(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create ticket", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket":     ticket,
		"expires_in": int(auth.TicketLifetime.Seconds()),
	})
}

// ServeWS upgrades the connection after validating the ticket and binds
// the ticket's username to the new client
func (a *API) ServeWS(c *gin.Context) {
	claims, err := auth.ValidateRealtimeTicket(c.Query("ticket"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "valid ticket required"})
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == a.FrontendURL
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error: websocket upgrade for %s failed: %v", claims.Username, err)
		return
	}

	client := realtime.NewClient(a.Hub, conn, claims.Username)
	a.Hub.Register(client)
	client.Start()
}
