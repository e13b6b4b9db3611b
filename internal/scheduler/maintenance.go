package scheduler

import (
	"log"
	"time"

	"studyhub/internal/store"
)

// MaintenanceStore is the slice of the persistence layer the daily and
// weekly jobs delegate to
type MaintenanceStore interface {
	UpdateAllStreaks(now time.Time) (int, error)
	GenerateDailyReports(now time.Time) (int, error)
	CleanupOldNotifications(now time.Time) (store.CleanupResult, error)
}

// StreakJob recomputes every account's study streak
func StreakJob(s MaintenanceStore) JobFunc {
	return func(now time.Time) error {
		updated, err := s.UpdateAllStreaks(now)
		if err != nil {
			return err
		}
		log.Printf("Streak update complete: %d streaks changed", updated)
		return nil
	}
}

// ReportJob writes yesterday's daily reports
func ReportJob(s MaintenanceStore) JobFunc {
	return func(now time.Time) error {
		created, err := s.GenerateDailyReports(now)
		if err != nil {
			return err
		}
		log.Printf("Report generation complete: %d reports created", created)
		return nil
	}
}

// CleanupJob removes aged notifications, reminder records and expired
// auth sessions
func CleanupJob(s MaintenanceStore) JobFunc {
	return func(now time.Time) error {
		result, err := s.CleanupOldNotifications(now)
		if err != nil {
			return err
		}
		log.Printf("Cleanup complete: %d notifications, %d reminder records, %d sessions removed",
			result.Notifications, result.Reminders, result.Sessions)
		return nil
	}
}
