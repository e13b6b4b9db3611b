package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ActivityLog represents an entry in the user's activity history
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:30;not null;index" json:"username"`
	EventType string    `gorm:"size:30;not null" json:"event_type"` // schedule_session, complete_session, create_group, join_group, friend_added, ...
	RefID     string    `gorm:"size:64" json:"ref_id"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// LoginLog records a successful sign-in
type LoginLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:30;not null;index" json:"username"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// Account represents a user account in the system
type Account struct {
	Username         string         `gorm:"primaryKey;size:30;not null" json:"username"`
	GoogleID         string         `gorm:"uniqueIndex;size:128;not null" json:"-"`
	Email            string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	EmailVerified    bool           `gorm:"not null;default:false" json:"email_verified"`
	FullName         string         `gorm:"size:100" json:"full_name"`
	GivenName        string         `gorm:"size:50" json:"-"`
	FamilyName       string         `gorm:"size:50" json:"-"`
	Locale           string         `gorm:"size:10" json:"-"`
	AvatarURL        string         `gorm:"size:255" json:"avatar_url"`
	Bio              string         `gorm:"size:500" json:"bio"`
	Timezone         string         `gorm:"size:50;default:'UTC'" json:"timezone"`
	DailyGoalMinutes int            `gorm:"not null;default:120" json:"daily_goal_minutes"`
	DateJoined       time.Time      `gorm:"not null" json:"date_joined"`
	Activities       []ActivityLog  `gorm:"foreignKey:Username" json:"activities,omitempty"`
	OwnedGroups      []StudyGroup   `gorm:"foreignKey:OrganiserID" json:"owned_groups,omitempty"`
	Memberships      []GroupMember  `gorm:"foreignKey:Username" json:"memberships,omitempty"`
	StudySessions    []StudySession `gorm:"foreignKey:Username" json:"study_sessions,omitempty"`
	LastLogin        time.Time      `gorm:"not null" json:"last_login"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// StringList represents a list of strings that can be stored as JSON
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = make([]string, 0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// BeforeCreate hook is called before creating a new account
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}
	if a.DateJoined.IsZero() {
		a.DateJoined = now
	}
	if a.LastLogin.IsZero() {
		a.LastLogin = now
	}
	if a.DailyGoalMinutes == 0 {
		a.DailyGoalMinutes = 120
	}
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}
	return nil
}

// BeforeSave hook is called before saving the account
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.UpdatedAt = time.Now()
	return nil
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "account"
}

// TableName specifies the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_log"
}

// TableName specifies the table name for the LoginLog model
func (LoginLog) TableName() string {
	return "login_log"
}

// CreateAccountRequest represents the data needed to create a profile
// for a signed-in Google user
type CreateAccountRequest struct {
	Username         string `json:"username" binding:"required,alphanum,min=3,max=30"`
	Bio              string `json:"bio" binding:"max=500"`
	Timezone         string `json:"timezone" binding:"max=50"`
	DailyGoalMinutes int    `json:"daily_goal_minutes" binding:"omitempty,min=10,max=960"`
}

// UpdateAccountRequest represents the editable profile fields
type UpdateAccountRequest struct {
	FullName         *string `json:"full_name" binding:"omitempty,max=100"`
	Bio              *string `json:"bio" binding:"omitempty,max=500"`
	Timezone         *string `json:"timezone" binding:"omitempty,max=50"`
	DailyGoalMinutes *int    `json:"daily_goal_minutes" binding:"omitempty,min=10,max=960"`
}
