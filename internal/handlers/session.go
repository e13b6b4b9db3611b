package handlers

import (
	"errors"
	"net/http"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateStudySession schedules a new study session
func CreateStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var request models.CreateSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if request.ScheduledStart.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session start must be in the future"})
		return
	}

	db := database.GetDB()

	if request.GroupID != "" {
		var count int64
		if err := db.Model(&models.GroupMember{}).
			Where("group_id = ? AND username = ? AND status = ?",
				request.GroupID, username, models.MemberApproved).
			Count(&count).Error; err != nil {
			handleError(c, http.StatusInternalServerError, "Failed to check group membership", err)
			return
		}
		if count == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
			return
		}
	}

	session := models.StudySession{
		Username:        username,
		GroupID:         request.GroupID,
		Title:           request.Title,
		Subject:         request.Subject,
		ScheduledStart:  request.ScheduledStart,
		DurationMinutes: request.DurationMinutes,
	}

	if err := db.Create(&session).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to schedule session", err)
		return
	}

	LogActivity(username, "schedule_session", session.ID)

	c.JSON(http.StatusCreated, session)
}

// ListStudySessions lists the caller's sessions; scope=upcoming (default)
// or scope=past
func ListStudySessions(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	query := db.Where("username = ?", username)

	switch c.DefaultQuery("scope", "upcoming") {
	case "past":
		query = query.Where("status IN ?",
			[]string{string(models.SessionCompleted), string(models.SessionCancelled)}).
			Order("scheduled_start DESC")
	default:
		query = query.Where("status IN ?",
			[]string{string(models.SessionScheduled), string(models.SessionInProgress)}).
			Order("scheduled_start ASC")
	}

	limit, offset := pagination(c, 20, 100)

	var sessions []models.StudySession
	if err := query.Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch sessions", err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// loadOwnSession fetches a session and checks the caller owns it
func loadOwnSession(c *gin.Context, username string) (*models.StudySession, bool) {
	sessionID := c.Param("session_id")

	db := database.GetDB()
	var session models.StudySession
	if err := db.Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Session not found", err)
		} else {
			handleError(c, http.StatusInternalServerError, "Failed to fetch session", err)
		}
		return nil, false
	}

	if session.Username != username {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your session"})
		return nil, false
	}
	return &session, true
}

// GetStudySession returns one of the caller's sessions
func GetStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	session, ok := loadOwnSession(c, username)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session)
}

// UpdateStudySession edits a session that has not started yet
func UpdateStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	session, ok := loadOwnSession(c, username)
	if !ok {
		return
	}

	if session.Status != models.SessionScheduled {
		c.JSON(http.StatusConflict, gin.H{"error": "Only scheduled sessions can be edited"})
		return
	}

	var request models.UpdateSessionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if request.Title != nil {
		session.Title = *request.Title
	}
	if request.Subject != nil {
		session.Subject = *request.Subject
	}
	if request.ScheduledStart != nil {
		if request.ScheduledStart.Before(time.Now()) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Session start must be in the future"})
			return
		}
		session.ScheduledStart = *request.ScheduledStart
	}
	if request.DurationMinutes != nil {
		session.DurationMinutes = *request.DurationMinutes
	}

	if err := database.GetDB().Save(session).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update session", err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// StartStudySession moves a scheduled session to in_progress
func StartStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	session, ok := loadOwnSession(c, username)
	if !ok {
		return
	}

	if session.Status != models.SessionScheduled {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is not scheduled"})
		return
	}

	now := time.Now()
	session.Status = models.SessionInProgress
	session.StartedAt = &now
	if err := database.GetDB().Save(session).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to start session", err)
		return
	}

	LogActivity(username, "start_session", session.ID)

	c.JSON(http.StatusOK, session)
}

// CompleteStudySession moves an in-progress session to completed. The
// analytics jobs read the completion stamp.
func CompleteStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	session, ok := loadOwnSession(c, username)
	if !ok {
		return
	}

	if session.Status != models.SessionInProgress {
		c.JSON(http.StatusConflict, gin.H{"error": "Session is not in progress"})
		return
	}

	now := time.Now()
	session.Status = models.SessionCompleted
	session.CompletedAt = &now
	if err := database.GetDB().Save(session).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to complete session", err)
		return
	}

	LogActivity(username, "complete_session", session.ID)

	c.JSON(http.StatusOK, session)
}

// CancelStudySession cancels a session that has not started
func CancelStudySession(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	session, ok := loadOwnSession(c, username)
	if !ok {
		return
	}

	if session.Status != models.SessionScheduled {
		c.JSON(http.StatusConflict, gin.H{"error": "Only scheduled sessions can be cancelled"})
		return
	}

	session.Status = models.SessionCancelled
	if err := database.GetDB().Save(session).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to cancel session", err)
		return
	}

	c.JSON(http.StatusOK, session)
}
