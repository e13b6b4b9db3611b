package store

import (
	"fmt"
	"log"
	"time"

	"studyhub/internal/models"

	"gorm.io/gorm"
)

// notificationRetention is how long read notifications and reminder
// records are kept before the weekly cleanup removes them
const notificationRetention = 30 * 24 * time.Hour

func dayStartUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// UpdateAllStreaks recomputes every account's consecutive-day study streak.
// The day under evaluation is the one that ended at the last UTC midnight
// before now: studying that day extends or restarts the streak, a silent
// day resets it. Longest never shrinks.
func (s *Store) UpdateAllStreaks(now time.Time) (int, error) {
	today := dayStartUTC(now)
	yesterday := today.Add(-24 * time.Hour)
	dayBefore := yesterday.Add(-24 * time.Hour)

	var usernames []string
	if err := s.db.Model(&models.Account{}).Pluck("username", &usernames).Error; err != nil {
		return 0, fmt.Errorf("failed to list accounts: %w", err)
	}

	updated := 0
	for _, username := range usernames {
		var count int64
		err := s.db.Model(&models.StudySession{}).
			Where("username = ? AND status = ? AND completed_at >= ? AND completed_at < ?",
				username, models.SessionCompleted, yesterday, today).
			Count(&count).Error
		if err != nil {
			log.Printf("Error: streak session count for %s failed: %v", username, err)
			continue
		}

		var streak models.StudyStreak
		err = s.db.Where("username = ?", username).First(&streak).Error
		if err == gorm.ErrRecordNotFound {
			streak = models.StudyStreak{Username: username}
		} else if err != nil {
			log.Printf("Error: streak load for %s failed: %v", username, err)
			continue
		}

		if !applyStreakDay(&streak, count > 0, yesterday, dayBefore) {
			continue
		}
		streak.UpdatedAt = time.Now()
		if err := s.db.Save(&streak).Error; err != nil {
			log.Printf("Error: streak save for %s failed: %v", username, err)
			continue
		}
		updated++
	}

	return updated, nil
}

// applyStreakDay folds one evaluated day into the streak and reports
// whether the row changed
func applyStreakDay(streak *models.StudyStreak, studied bool, yesterday, dayBefore time.Time) bool {
	if !studied {
		if streak.Current == 0 {
			return false
		}
		streak.Current = 0
		return true
	}

	if streak.LastStudyDate != nil && streak.LastStudyDate.Equal(yesterday) {
		// already counted for this day
		return false
	}
	if streak.LastStudyDate != nil && streak.LastStudyDate.Equal(dayBefore) {
		streak.Current++
	} else {
		streak.Current = 1
	}
	day := yesterday
	streak.LastStudyDate = &day
	if streak.Current > streak.Longest {
		streak.Longest = streak.Current
	}
	return true
}

// GenerateDailyReports writes one DailyReport per user for the day that
// ended at the last UTC midnight before now. Re-running for the same day
// creates nothing.
func (s *Store) GenerateDailyReports(now time.Time) (int, error) {
	today := dayStartUTC(now)
	yesterday := today.Add(-24 * time.Hour)

	var sessions []models.StudySession
	err := s.db.
		Where("status = ? AND completed_at >= ? AND completed_at < ?",
			models.SessionCompleted, yesterday, today).
		Find(&sessions).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load completed sessions: %w", err)
	}

	byUser := make(map[string][]models.StudySession)
	for i := range sessions {
		byUser[sessions[i].Username] = append(byUser[sessions[i].Username], sessions[i])
	}

	created := 0
	for username, userSessions := range byUser {
		var count int64
		err := s.db.Model(&models.DailyReport{}).
			Where("username = ? AND report_date = ?", username, yesterday).
			Count(&count).Error
		if err != nil {
			log.Printf("Error: report lookup for %s failed: %v", username, err)
			continue
		}
		if count > 0 {
			continue
		}

		totalMinutes := 0
		seen := make(map[string]bool)
		subjects := models.StringList{}
		for i := range userSessions {
			totalMinutes += userSessions[i].ActualMinutes()
			subject := userSessions[i].Subject
			if subject != "" && !seen[subject] {
				seen[subject] = true
				subjects = append(subjects, subject)
			}
		}

		report := models.DailyReport{
			Username:          username,
			ReportDate:        yesterday,
			SessionsCompleted: len(userSessions),
			TotalMinutes:      totalMinutes,
			Subjects:          subjects,
			CreatedAt:         time.Now(),
		}
		if err := s.db.Create(&report).Error; err != nil {
			log.Printf("Error: report create for %s failed: %v", username, err)
			continue
		}
		created++
	}

	return created, nil
}

// CleanupResult summarizes what the weekly cleanup removed
type CleanupResult struct {
	Notifications int64
	Reminders     int64
	Sessions      int64
}

// CleanupOldNotifications removes read notifications and reminder records
// older than the retention window, plus expired auth sessions
func (s *Store) CleanupOldNotifications(now time.Time) (CleanupResult, error) {
	cutoff := now.Add(-notificationRetention)
	var result CleanupResult

	del := s.db.Where("read = ? AND created_at < ?", true, cutoff).Delete(&models.Notification{})
	if del.Error != nil {
		return result, fmt.Errorf("failed to delete old notifications: %w", del.Error)
	}
	result.Notifications = del.RowsAffected

	del = s.db.Where("sent_at < ?", cutoff).Delete(&models.ReminderSent{})
	if del.Error != nil {
		return result, fmt.Errorf("failed to delete old reminder records: %w", del.Error)
	}
	result.Reminders = del.RowsAffected

	del = s.db.Where("expires_at < ?", now).Delete(&models.Session{})
	if del.Error != nil {
		return result, fmt.Errorf("failed to delete expired sessions: %w", del.Error)
	}
	result.Sessions = del.RowsAffected

	return result, nil
}
