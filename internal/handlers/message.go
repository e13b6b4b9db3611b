package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"studyhub/internal/database"
	"studyhub/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetGroupMessages returns a group's chat history, newest first, with
// before-id pagination. Fetched messages are marked read for the caller.
func GetGroupMessages(c *gin.Context) {
	groupID := c.Param("group_id")
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()

	var group models.StudyGroup
	if err := db.Preload("Members").Where("id = ?", groupID).First(&group).Error; err != nil {
		handleError(c, http.StatusNotFound, "Group not found", err)
		return
	}

	isMember := group.OrganiserID == requester
	if !isMember {
		for _, member := range group.Members {
			if member.Username == requester && member.Status == models.MemberApproved {
				isMember = true
				break
			}
		}
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view group messages"})
		return
	}

	limit, _ := pagination(c, 50, 100)

	query := db.Where("group_id = ?", groupID)
	if beforeStr := c.Query("before"); beforeStr != "" {
		if before, err := strconv.ParseUint(beforeStr, 10, 32); err == nil {
			query = query.Where("id < ?", uint(before))
		}
	}

	var messages []models.GroupMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch messages", err)
		return
	}

	markMessagesRead(db, messages, requester)

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// markMessagesRead adds requester to each message's read_by list. The
// JSON handling stays in Go so it works on both Postgres and SQLite.
func markMessagesRead(db *gorm.DB, messages []models.GroupMessage, requester string) {
	for i := range messages {
		if readByContains(messages[i].ReadBy, requester) {
			continue
		}

		var readers []string
		if len(messages[i].ReadBy) > 0 {
			if err := json.Unmarshal(messages[i].ReadBy, &readers); err != nil {
				log.Printf("Warning: failed to parse read_by for message %d: %v", messages[i].ID, err)
				readers = nil
			}
		}
		readers = append(readers, requester)
		updated, err := json.Marshal(readers)
		if err != nil {
			continue
		}

		if err := db.Model(&messages[i]).Update("read_by", updated).Error; err != nil {
			log.Printf("Warning: failed to update read_by for message %d: %v", messages[i].ID, err)
			continue
		}
		messages[i].ReadBy = updated
	}
}

// GetConversation returns the direct-message history between the caller
// and :username, newest first. Incoming messages are marked read.
func GetConversation(c *gin.Context) {
	other := c.Param("username")
	requester, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()

	limit, _ := pagination(c, 50, 100)

	query := db.Where(
		"(sender = ? AND receiver = ?) OR (sender = ? AND receiver = ?)",
		requester, other, other, requester)
	if beforeStr := c.Query("before"); beforeStr != "" {
		if before, err := strconv.ParseUint(beforeStr, 10, 32); err == nil {
			query = query.Where("id < ?", uint(before))
		}
	}

	var messages []models.DirectMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch messages", err)
		return
	}

	// Mark everything the other side sent as read
	if err := db.Model(&models.DirectMessage{}).
		Where("sender = ? AND receiver = ? AND read = ?", other, requester, false).
		Update("read", true).Error; err != nil {
		log.Printf("Warning: failed to mark conversation read for %s: %v", requester, err)
	}
	for i := range messages {
		if messages[i].Receiver == requester {
			messages[i].Read = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// readByContains reports whether username is already in a read_by list
func readByContains(readBy []byte, username string) bool {
	var readers []string
	if len(readBy) > 0 {
		if err := json.Unmarshal(readBy, &readers); err != nil {
			return false
		}
	}
	for _, reader := range readers {
		if reader == username {
			return true
		}
	}
	return false
}
