package models

import "time"

// StudyStreak tracks consecutive days with at least one completed session
type StudyStreak struct {
	ID            uint       `gorm:"primaryKey" json:"-"`
	Username      string     `gorm:"size:30;not null;uniqueIndex" json:"username"`
	Current       int        `gorm:"not null;default:0" json:"current"`
	Longest       int        `gorm:"not null;default:0" json:"longest"`
	LastStudyDate *time.Time `json:"last_study_date,omitempty"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for the StudyStreak model
func (StudyStreak) TableName() string {
	return "study_streak"
}

// DailyReport aggregates one user's completed study time for one day
type DailyReport struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	Username          string     `gorm:"size:30;not null;uniqueIndex:idx_report_user_date" json:"username"`
	ReportDate        time.Time  `gorm:"not null;uniqueIndex:idx_report_user_date" json:"report_date"`
	SessionsCompleted int        `gorm:"not null;default:0" json:"sessions_completed"`
	TotalMinutes      int        `gorm:"not null;default:0" json:"total_minutes"`
	Subjects          StringList `gorm:"type:json" json:"subjects"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
}

// TableName specifies the table name for the DailyReport model
func (DailyReport) TableName() string {
	return "daily_report"
}
