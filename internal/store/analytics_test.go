package store

import (
	"testing"
	"time"

	"studyhub/internal/models"

	"gorm.io/gorm"
)

// jobNow is a fixed "just after midnight" instant; the day under
// evaluation for streaks and reports is then March 9 UTC.
var jobNow = time.Date(2026, 3, 10, 0, 10, 0, 0, time.UTC)

func completedSession(t *testing.T, db *gorm.DB, username, subject string, completedAt time.Time, minutes int) {
	t.Helper()
	started := completedAt.Add(-time.Duration(minutes) * time.Minute)
	createSession(t, db, models.StudySession{
		Username:        username,
		Title:           subject + " session",
		Subject:         subject,
		ScheduledStart:  started,
		DurationMinutes: minutes,
		Status:          models.SessionCompleted,
		StartedAt:       &started,
		CompletedAt:     &completedAt,
	})
}

func loadStreak(t *testing.T, db *gorm.DB, username string) models.StudyStreak {
	t.Helper()
	var streak models.StudyStreak
	if err := db.Where("username = ?", username).First(&streak).Error; err != nil {
		t.Fatalf("failed to load streak for %s: %v", username, err)
	}
	return streak
}

func TestStreakStartsAtOne(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")
	completedSession(t, db, "alice", "math", jobNow.Add(-10*time.Hour), 60)

	updated, err := s.UpdateAllStreaks(jobNow)
	if err != nil {
		t.Fatalf("UpdateAllStreaks failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("got %d updates, want 1", updated)
	}

	streak := loadStreak(t, db, "alice")
	if streak.Current != 1 || streak.Longest != 1 {
		t.Fatalf("got current=%d longest=%d, want 1/1", streak.Current, streak.Longest)
	}
}

func TestStreakExtendsOnConsecutiveDays(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")

	// one completed session per day for three days
	for day := 3; day >= 1; day-- {
		completedSession(t, db, "alice", "math",
			jobNow.Add(-time.Duration(day)*24*time.Hour).Add(14*time.Hour), 30)
	}
	for day := 2; day >= 0; day-- {
		runAt := jobNow.Add(-time.Duration(day) * 24 * time.Hour)
		if _, err := s.UpdateAllStreaks(runAt); err != nil {
			t.Fatalf("UpdateAllStreaks failed: %v", err)
		}
	}

	streak := loadStreak(t, db, "alice")
	if streak.Current != 3 || streak.Longest != 3 {
		t.Fatalf("got current=%d longest=%d, want 3/3", streak.Current, streak.Longest)
	}
}

func TestStreakResetsAfterSilentDay(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")
	completedSession(t, db, "alice", "math", jobNow.Add(-34*time.Hour), 30)

	// the day with the session
	if _, err := s.UpdateAllStreaks(jobNow.Add(-24 * time.Hour)); err != nil {
		t.Fatalf("UpdateAllStreaks failed: %v", err)
	}
	if streak := loadStreak(t, db, "alice"); streak.Current != 1 {
		t.Fatalf("got current=%d, want 1", streak.Current)
	}

	// the silent day resets current, longest stays
	if _, err := s.UpdateAllStreaks(jobNow); err != nil {
		t.Fatalf("UpdateAllStreaks failed: %v", err)
	}
	streak := loadStreak(t, db, "alice")
	if streak.Current != 0 {
		t.Fatalf("got current=%d, want 0", streak.Current)
	}
	if streak.Longest != 1 {
		t.Fatalf("longest must not shrink, got %d", streak.Longest)
	}
}

func TestStreakUpdateIdempotentForSameDay(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")
	completedSession(t, db, "alice", "math", jobNow.Add(-10*time.Hour), 30)

	if _, err := s.UpdateAllStreaks(jobNow); err != nil {
		t.Fatalf("UpdateAllStreaks failed: %v", err)
	}
	updated, err := s.UpdateAllStreaks(jobNow)
	if err != nil {
		t.Fatalf("UpdateAllStreaks failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("second run for the same day updated %d rows, want 0", updated)
	}
	if streak := loadStreak(t, db, "alice"); streak.Current != 1 {
		t.Fatalf("got current=%d, want 1", streak.Current)
	}
}

func TestStreakGapRestartsAtOne(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")

	// study three days ago and yesterday, silence in between
	completedSession(t, db, "alice", "math", jobNow.Add(-58*time.Hour), 30)
	completedSession(t, db, "alice", "math", jobNow.Add(-10*time.Hour), 30)

	for day := 2; day >= 0; day-- {
		if _, err := s.UpdateAllStreaks(jobNow.Add(-time.Duration(day) * 24 * time.Hour)); err != nil {
			t.Fatalf("UpdateAllStreaks failed: %v", err)
		}
	}

	streak := loadStreak(t, db, "alice")
	if streak.Current != 1 || streak.Longest != 1 {
		t.Fatalf("got current=%d longest=%d, want 1/1", streak.Current, streak.Longest)
	}
}

func TestGenerateDailyReportsAggregates(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")
	createAccount(t, db, "bob")

	completedSession(t, db, "alice", "math", jobNow.Add(-14*time.Hour), 45)
	completedSession(t, db, "alice", "physics", jobNow.Add(-8*time.Hour), 30)
	completedSession(t, db, "alice", "math", jobNow.Add(-6*time.Hour), 25)
	// outside the reported day
	completedSession(t, db, "bob", "history", jobNow.Add(-30*time.Hour), 60)

	created, err := s.GenerateDailyReports(jobNow)
	if err != nil {
		t.Fatalf("GenerateDailyReports failed: %v", err)
	}
	if created != 1 {
		t.Fatalf("got %d reports, want 1", created)
	}

	var report models.DailyReport
	if err := db.Where("username = ?", "alice").First(&report).Error; err != nil {
		t.Fatalf("failed to load report: %v", err)
	}
	if report.SessionsCompleted != 3 {
		t.Fatalf("got %d sessions, want 3", report.SessionsCompleted)
	}
	if report.TotalMinutes != 100 {
		t.Fatalf("got %d minutes, want 100", report.TotalMinutes)
	}
	if len(report.Subjects) != 2 {
		t.Fatalf("got subjects %v, want deduplicated math+physics", report.Subjects)
	}
	wantDate := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !report.ReportDate.UTC().Equal(wantDate) {
		t.Fatalf("got report date %v, want %v", report.ReportDate, wantDate)
	}
}

func TestGenerateDailyReportsIdempotent(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")
	completedSession(t, db, "alice", "math", jobNow.Add(-10*time.Hour), 45)

	if _, err := s.GenerateDailyReports(jobNow); err != nil {
		t.Fatalf("GenerateDailyReports failed: %v", err)
	}
	created, err := s.GenerateDailyReports(jobNow)
	if err != nil {
		t.Fatalf("GenerateDailyReports failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("second run created %d reports, want 0", created)
	}

	var count int64
	if err := db.Model(&models.DailyReport{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count reports: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d report rows, want 1", count)
	}
}

func TestGenerateDailyReportsSkipsEmptyDays(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")

	created, err := s.GenerateDailyReports(jobNow)
	if err != nil {
		t.Fatalf("GenerateDailyReports failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("got %d reports for a day without sessions, want 0", created)
	}
}

func TestCleanupOldNotifications(t *testing.T) {
	s, db := openStore(t)
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-2 * 24 * time.Hour)

	notifications := []models.Notification{
		{RecipientUsername: "alice", Type: models.NotifSessionReminder, Title: "t", Message: "m", Read: true, CreatedAt: old},
		{RecipientUsername: "alice", Type: models.NotifSessionReminder, Title: "t", Message: "m", Read: false, CreatedAt: old},
		{RecipientUsername: "alice", Type: models.NotifSessionReminder, Title: "t", Message: "m", Read: true, CreatedAt: recent},
	}
	for i := range notifications {
		if err := db.Create(&notifications[i]).Error; err != nil {
			t.Fatalf("failed to create notification: %v", err)
		}
	}

	reminders := []models.ReminderSent{
		{SessionID: "s1", Username: "alice", Threshold: models.Threshold15Min, SentAt: old},
		{SessionID: "s2", Username: "alice", Threshold: models.Threshold15Min, SentAt: recent},
	}
	for i := range reminders {
		if err := db.Create(&reminders[i]).Error; err != nil {
			t.Fatalf("failed to create reminder record: %v", err)
		}
	}

	authSessions := []models.Session{
		{ID: "expired", ExpiresAt: now.Add(-time.Hour), CreatedAt: old},
		{ID: "live", ExpiresAt: now.Add(time.Hour), CreatedAt: recent},
	}
	for i := range authSessions {
		if err := db.Create(&authSessions[i]).Error; err != nil {
			t.Fatalf("failed to create auth session: %v", err)
		}
	}

	result, err := s.CleanupOldNotifications(now)
	if err != nil {
		t.Fatalf("CleanupOldNotifications failed: %v", err)
	}
	if result.Notifications != 1 {
		t.Fatalf("got %d deleted notifications, want 1 (old+read only)", result.Notifications)
	}
	if result.Reminders != 1 {
		t.Fatalf("got %d deleted reminder records, want 1", result.Reminders)
	}
	if result.Sessions != 1 {
		t.Fatalf("got %d deleted auth sessions, want 1", result.Sessions)
	}

	var remaining int64
	if err := db.Model(&models.Notification{}).Count(&remaining).Error; err != nil {
		t.Fatalf("failed to count notifications: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("got %d notifications left, want 2", remaining)
	}
}
