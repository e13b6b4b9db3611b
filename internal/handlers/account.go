package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"studyhub/internal/auth"
	"studyhub/internal/database"
	"studyhub/internal/models"
	"studyhub/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateAccount creates the profile for a signed-in Google user. The
// session exists already; this binds a username to it.
func CreateAccount(c *gin.Context) {
	if c.GetString("username") != "" {
		c.JSON(http.StatusConflict, gin.H{"error": "profile already exists"})
		return
	}

	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	sub := c.GetString("sub")
	if sub == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	account := models.Account{
		Username:         strings.ToLower(req.Username),
		GoogleID:         sub,
		Email:            c.GetString("email"),
		EmailVerified:    true,
		FullName:         c.GetString("name"),
		AvatarURL:        c.GetString("picture"),
		Bio:              req.Bio,
		Timezone:         req.Timezone,
		DailyGoalMinutes: req.DailyGoalMinutes,
	}

	db := database.GetDB()
	if err := db.Create(&account).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "UNIQUE constraint") {
			handleError(c, http.StatusConflict, "Username or account already exists", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to create account", err)
		return
	}

	if err := auth.LinkSessionToUser(c.GetString("session_id"), account.Username); err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to link session", err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetMyAccount returns the authenticated user's full profile
func GetMyAccount(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// UpdateMyAccount patches the editable profile fields
func UpdateMyAccount(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Timezone != nil {
		updates["timezone"] = *req.Timezone
	}
	if req.DailyGoalMinutes != nil {
		updates["daily_goal_minutes"] = *req.DailyGoalMinutes
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	updates["updated_at"] = time.Now()

	db := database.GetDB()
	if err := db.Model(&models.Account{}).Where("username = ?", username).Updates(updates).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update account", err)
		return
	}

	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetAccount returns another user's public profile with recent activity
func GetAccount(c *gin.Context) {
	username := c.Param("username")

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve account", err)
		return
	}

	var activities []models.ActivityLog
	if err := db.Where("username = ?", username).
		Order("timestamp DESC").Limit(20).Find(&activities).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to retrieve activity", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":    account.Username,
		"full_name":   account.FullName,
		"bio":         account.Bio,
		"avatar_url":  account.AvatarURL,
		"date_joined": account.DateJoined,
		"activities":  activities,
	})
}

// maxAvatarSize limits avatar uploads to 5 MB
const maxAvatarSize = 5 << 20

// UploadAvatar stores a new profile picture via Cloudinary
func UploadAvatar(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		handleError(c, http.StatusBadRequest, "avatar file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}
	defer file.Close()

	imageService, err := services.NewImageService()
	if err != nil {
		handleError(c, http.StatusServiceUnavailable, "Image uploads are not configured", err)
		return
	}

	if err := imageService.ValidateImageFile(file, maxAvatarSize); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadAvatar(file, fileHeader.Filename, username)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload avatar", err)
		return
	}

	db := database.GetDB()
	if err := db.Model(&models.Account{}).Where("username = ?", username).
		Update("avatar_url", url).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save avatar", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
