package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetStreak returns the caller's study streak; a user who never studied
// gets a zeroed streak rather than a 404
func GetStreak(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var streak models.StudyStreak
	err := database.GetDB().Where("username = ?", username).First(&streak).Error
	if err == gorm.ErrRecordNotFound {
		streak = models.StudyStreak{Username: username}
	} else if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch streak", err)
		return
	}

	c.JSON(http.StatusOK, streak)
}

// GetReports returns the caller's daily reports for the last ?days=N days
// (default 7, max 90)
func GetReports(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}
	if days > 90 {
		days = 90
	}

	since := time.Now().UTC().AddDate(0, 0, -days)

	var reports []models.DailyReport
	if err := database.GetDB().
		Where("username = ? AND report_date >= ?", username, since).
		Order("report_date DESC").Find(&reports).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch reports", err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

const (
	leaderboardKey  = "leaderboard:streaks"
	leaderboardTTL  = 5 * time.Minute
	leaderboardSize = 10
)

// LeaderboardEntry is one row of the streak leaderboard
type LeaderboardEntry struct {
	Username string `json:"username"`
	Current  int    `json:"current"`
	Longest  int    `json:"longest"`
}

// GetLeaderboard returns the top current streaks, cached in Redis for a
// few minutes when Redis is configured
func (a *API) GetLeaderboard(c *gin.Context) {
	if _, ok := requireUsername(c); !ok {
		return
	}

	if a.Cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if cached, err := a.Cache.Get(ctx, leaderboardKey).Result(); err == nil {
			var entries []LeaderboardEntry
			if json.Unmarshal([]byte(cached), &entries) == nil {
				c.JSON(http.StatusOK, entries)
				return
			}
		}
	}

	var streaks []models.StudyStreak
	if err := database.GetDB().
		Where("current > 0").
		Order("current DESC, longest DESC").
		Limit(leaderboardSize).Find(&streaks).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch leaderboard", err)
		return
	}

	entries := make([]LeaderboardEntry, 0, len(streaks))
	for _, streak := range streaks {
		entries = append(entries, LeaderboardEntry{
			Username: streak.Username,
			Current:  streak.Current,
			Longest:  streak.Longest,
		})
	}

	if a.Cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := a.Cache.Set(ctx, leaderboardKey, data, leaderboardTTL).Err(); err != nil {
				log.Printf("Warning: failed to cache leaderboard: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, entries)
}
