package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"
	"studyhub/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SendFriendRequest creates a pending friendship toward another user
func SendFriendRequest(c *gin.Context) {
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	var body models.FriendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	if body.Username == requester {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot befriend yourself"})
		return
	}

	db := database.GetDB()

	var addressee models.Account
	if err := db.Where("username = ?", body.Username).First(&addressee).Error; err != nil {
		handleError(c, http.StatusNotFound, "User not found", err)
		return
	}

	// One friendship row per pair, in either direction
	var existing models.Friendship
	err := db.Where(
		"(requester = ? AND addressee = ?) OR (requester = ? AND addressee = ?)",
		requester, body.Username, body.Username, requester).First(&existing).Error
	if err == nil {
		switch existing.Status {
		case models.FriendAccepted:
			c.JSON(http.StatusConflict, gin.H{"error": "Already friends"})
		case models.FriendPending:
			c.JSON(http.StatusConflict, gin.H{"error": "Friend request already pending"})
		default:
			// A declined pair can try again
			existing.Requester = requester
			existing.Addressee = body.Username
			existing.Status = models.FriendPending
			existing.RespondedAt = nil
			if err := db.Save(&existing).Error; err != nil {
				handleError(c, http.StatusInternalServerError, "Failed to send friend request", err)
				return
			}
			notifyFriendRequest(requester, body.Username)
			c.JSON(http.StatusCreated, existing)
		}
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		handleError(c, http.StatusInternalServerError, "Failed to check friendship", err)
		return
	}

	friendship := models.Friendship{
		Requester: requester,
		Addressee: body.Username,
		Status:    models.FriendPending,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&friendship).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to send friend request", err)
		return
	}

	notifyFriendRequest(requester, body.Username)

	c.JSON(http.StatusCreated, friendship)
}

func notifyFriendRequest(requester, addressee string) {
	createNotification(addressee, models.NotifFriendRequest,
		"New friend request",
		fmt.Sprintf("%s wants to be your study friend", requester),
		requester, models.RelatedAccount)
}

// ListIncomingFriendRequests lists pending requests addressed to the caller
func ListIncomingFriendRequests(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var requests []models.Friendship
	if err := database.GetDB().
		Where("addressee = ? AND status = ?", username, models.FriendPending).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch friend requests", err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// loadPendingRequest fetches a pending friendship addressed to the caller
func loadPendingRequest(c *gin.Context, username string) (*models.Friendship, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid request id", err)
		return nil, false
	}

	var friendship models.Friendship
	if err := database.GetDB().
		Where("id = ? AND addressee = ? AND status = ?", uint(id), username, models.FriendPending).
		First(&friendship).Error; err != nil {
		handleError(c, http.StatusNotFound, "Friend request not found", err)
		return nil, false
	}
	return &friendship, true
}

// AcceptFriendRequest accepts a pending request addressed to the caller
func AcceptFriendRequest(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	friendship, ok := loadPendingRequest(c, username)
	if !ok {
		return
	}

	now := time.Now()
	friendship.Status = models.FriendAccepted
	friendship.RespondedAt = &now
	if err := database.GetDB().Save(friendship).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to accept friend request", err)
		return
	}

	LogActivity(username, "friend_added", friendship.Requester)
	createNotification(friendship.Requester, models.NotifFriendAccepted,
		"Friend request accepted",
		fmt.Sprintf("%s accepted your friend request", username),
		username, models.RelatedAccount)

	c.JSON(http.StatusOK, friendship)
}

// DeclineFriendRequest declines a pending request addressed to the caller
func DeclineFriendRequest(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	friendship, ok := loadPendingRequest(c, username)
	if !ok {
		return
	}

	now := time.Now()
	friendship.Status = models.FriendDeclined
	friendship.RespondedAt = &now
	if err := database.GetDB().Save(friendship).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to decline friend request", err)
		return
	}

	c.JSON(http.StatusOK, friendship)
}

// RemoveFriend deletes an accepted friendship with :username
func RemoveFriend(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}
	other := c.Param("username")

	result := database.GetDB().Where(
		"status = ? AND ((requester = ? AND addressee = ?) OR (requester = ? AND addressee = ?))",
		models.FriendAccepted, username, other, other, username).
		Delete(&models.Friendship{})
	if result.Error != nil {
		handleError(c, http.StatusInternalServerError, "Failed to remove friend", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not friends"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}

// ListFriends lists the caller's accepted friends with their online state
func (a *API) ListFriends(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	friends, err := store.New(database.GetDB()).StudyingFriends(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch friends", err)
		return
	}

	online := a.Presence.Online(friends)

	result := make([]gin.H, 0, len(friends))
	for _, friend := range friends {
		result = append(result, gin.H{
			"username": friend,
			"online":   online[friend],
		})
	}
	c.JSON(http.StatusOK, result)
}

// StudyingFriends lists the caller's friends with a session in progress
func StudyingFriends(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	active, err := store.New(database.GetDB()).ActiveFriendSessions(username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch studying friends", err)
		return
	}

	c.JSON(http.StatusOK, active)
}
