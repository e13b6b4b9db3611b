package handlers

import (
	"log"
	"net/http"
	"time"

	"studyhub/internal/auth"
	"studyhub/internal/database"
	"studyhub/internal/metrics"
	"studyhub/internal/models"
	"studyhub/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// handleError provides a consistent way to handle and log errors
func handleError(c *gin.Context, status int, message string, err error) {
	log.Printf("Error: %v", err)
	c.JSON(status, gin.H{"error": message})
}

// requireUsername returns the authenticated username, or writes a 403 when
// the session exists but no profile was created yet
func requireUsername(c *gin.Context) (string, bool) {
	username := c.GetString("username")
	if username == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "profile required"})
		return "", false
	}
	return username, true
}

// LogActivity adds a new entry to the user's activity history
func LogActivity(username, eventType, refID string) error {
	activity := models.ActivityLog{
		Username:  username,
		EventType: eventType,
		RefID:     refID,
		Timestamp: time.Now(),
	}

	if err := database.GetDB().Create(&activity).Error; err != nil {
		log.Printf("Warning: failed to log activity: %v", err)
		return err
	}
	return nil
}

// createNotification persists a notification and counts it
func createNotification(recipient, notifType, title, message, relatedID, relatedType string) {
	notification := models.Notification{
		RecipientUsername: recipient,
		Type:              notifType,
		Title:             title,
		Message:           message,
		RelatedID:         relatedID,
		RelatedType:       relatedType,
		CreatedAt:         time.Now(),
	}
	if err := database.GetDB().Create(&notification).Error; err != nil {
		log.Printf("Warning: failed to create notification for %s: %v", recipient, err)
		return
	}
	metrics.NotificationsCreated.WithLabelValues(notifType).Inc()
}

// HomeHandler describes the API at the root path
func HomeHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "StudyHub API",
		"login":   "/auth/google/login",
		"health":  "/health",
		"metrics": "/metrics",
	})
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// API carries the shared components a few handlers need beyond the
// database: the realtime hub, presence and the optional Redis cache
type API struct {
	Hub         *realtime.Hub
	Presence    *realtime.Presence
	Cache       *redis.Client
	FrontendURL string
}

// RegisterRoutes mounts the whole route tree on router. Tests mount the
// same tree over an in-memory database.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{api.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/", HomeHandler)
	router.GET("/health", HealthHandler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/auth/google/login", LoginHandler)
	router.GET("/auth/google/callback", GoogleCallbackHandler)

	// The WebSocket handshake authenticates with a ticket, not a cookie
	router.GET("/ws", api.ServeWS)

	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.POST("/auth/logout", LogoutHandler)
		protected.GET("/auth/me", MeHandler)

		protected.POST("/accounts", CreateAccount)
		protected.GET("/accounts/me", GetMyAccount)
		protected.PATCH("/accounts/me", UpdateMyAccount)
		protected.POST("/accounts/me/avatar", UploadAvatar)
		protected.GET("/accounts/:username", GetAccount)

		protected.POST("/groups", CreateGroup)
		protected.GET("/groups", GetGroups)
		protected.GET("/groups/mine", MyGroups)
		protected.GET("/groups/:group_id", GetGroupByID)
		protected.POST("/groups/:group_id/join", JoinGroup)
		protected.POST("/groups/:group_id/leave", LeaveGroup)
		protected.GET("/groups/:group_id/pending", ListPendingMembers)
		protected.POST("/groups/:group_id/approve/:username", ApproveJoinRequest)
		protected.POST("/groups/:group_id/reject/:username", RejectJoinRequest)
		protected.GET("/groups/:group_id/messages", GetGroupMessages)

		protected.POST("/sessions", CreateStudySession)
		protected.GET("/sessions", ListStudySessions)
		protected.GET("/sessions/:session_id", GetStudySession)
		protected.PATCH("/sessions/:session_id", UpdateStudySession)
		protected.POST("/sessions/:session_id/start", StartStudySession)
		protected.POST("/sessions/:session_id/complete", CompleteStudySession)
		protected.POST("/sessions/:session_id/cancel", CancelStudySession)

		protected.POST("/friends/requests", SendFriendRequest)
		protected.GET("/friends/requests", ListIncomingFriendRequests)
		protected.POST("/friends/requests/:id/accept", AcceptFriendRequest)
		protected.POST("/friends/requests/:id/decline", DeclineFriendRequest)
		protected.GET("/friends", api.ListFriends)
		protected.DELETE("/friends/:username", RemoveFriend)
		protected.GET("/friends/studying", StudyingFriends)

		protected.GET("/messages/:username", GetConversation)

		protected.GET("/notifications", ListNotifications)
		protected.GET("/notifications/unread-count", UnreadNotificationCount)
		protected.POST("/notifications/:id/read", MarkNotificationRead)
		protected.POST("/notifications/read-all", MarkAllNotificationsRead)

		protected.GET("/analytics/streak", GetStreak)
		protected.GET("/analytics/reports", GetReports)
		protected.GET("/analytics/leaderboard", api.GetLeaderboard)

		protected.GET("/locations/validate", ValidateLocation)

		protected.GET("/realtime/ticket", RealtimeTicket)
	}
}
