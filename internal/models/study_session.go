package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents the lifecycle state of a study session
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// StudySession represents a planned block of study time, solo or with a group
type StudySession struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	Username        string        `gorm:"size:30;not null;index:idx_study_session_user_start" json:"username"`
	GroupID         string        `gorm:"size:50;index" json:"group_id,omitempty"`
	Title           string        `gorm:"size:120;not null" json:"title"`
	Subject         string        `gorm:"size:60" json:"subject"`
	ScheduledStart  time.Time     `gorm:"not null;index:idx_study_session_user_start;index:idx_study_session_scan,priority:2" json:"scheduled_start"`
	DurationMinutes int           `gorm:"not null;default:60" json:"duration_minutes"`
	Status          SessionStatus `gorm:"size:20;not null;default:'scheduled';index:idx_study_session_scan,priority:1" json:"status"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"updated_at"`
}

// BeforeCreate hook assigns an id and timestamps
func (s *StudySession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = SessionScheduled
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// BeforeSave hook keeps the update timestamp current
func (s *StudySession) BeforeSave(tx *gorm.DB) error {
	s.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the StudySession model
func (StudySession) TableName() string {
	return "study_session"
}

// ActualMinutes returns studied time for a completed session, falling back
// to the planned duration when start/completion stamps are missing
func (s *StudySession) ActualMinutes() int {
	if s.StartedAt != nil && s.CompletedAt != nil {
		m := int(s.CompletedAt.Sub(*s.StartedAt).Minutes())
		if m > 0 {
			return m
		}
	}
	return s.DurationMinutes
}

// CreateSessionRequest represents the data needed to schedule a study session
type CreateSessionRequest struct {
	Title           string    `json:"title" binding:"required,max=120"`
	Subject         string    `json:"subject" binding:"max=60"`
	ScheduledStart  time.Time `json:"scheduled_start" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required,min=5,max=600"`
	GroupID         string    `json:"group_id" binding:"omitempty,max=50"`
}

// UpdateSessionRequest represents the editable fields of a scheduled session
type UpdateSessionRequest struct {
	Title           *string    `json:"title" binding:"omitempty,max=120"`
	Subject         *string    `json:"subject" binding:"omitempty,max=60"`
	ScheduledStart  *time.Time `json:"scheduled_start"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,min=5,max=600"`
}
