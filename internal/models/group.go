package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// StudyLevel represents the intended level for a study group
type StudyLevel string

const (
	Beginner     StudyLevel = "beginner"
	Intermediate StudyLevel = "intermediate"
	Advanced     StudyLevel = "advanced"
)

// MeetingMode represents how a study group meets
type MeetingMode string

const (
	MeetInPerson MeetingMode = "in_person"
	MeetOnline   MeetingMode = "online"
	MeetHybrid   MeetingMode = "hybrid"
)

// Membership status values
const (
	MemberPending  = "pending"
	MemberApproved = "approved"
	MemberRejected = "rejected"
)

// Venue represents a meeting place using Google Maps data
type Venue struct {
	FormattedAddress string  `json:"formatted_address"`
	PlaceID          string  `json:"place_id"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Implement driver.Valuer and sql.Scanner
func (v Venue) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Venue) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch b := value.(type) {
	case []byte:
		return json.Unmarshal(b, v)
	case string:
		return json.Unmarshal([]byte(b), v)
	default:
		return fmt.Errorf("failed to unmarshal Venue: %v", value)
	}
}

// IsSet reports whether a venue was provided
func (v Venue) IsSet() bool {
	return v.PlaceID != ""
}

// StudyGroup represents a study group in the system
type StudyGroup struct {
	ID          string        `gorm:"primaryKey;size:50" json:"id"`
	Name        string        `gorm:"size:100;not null" json:"name"`
	Subject     string        `gorm:"size:60;not null;index" json:"subject"`
	StudyLevel  StudyLevel    `gorm:"size:20;not null" json:"study_level"`
	MeetingMode MeetingMode   `gorm:"size:20;not null" json:"meeting_mode"`
	Venue       Venue         `gorm:"type:json" json:"venue"`
	MaxMembers  int           `gorm:"not null" json:"max_members"`
	Description string        `gorm:"size:1000;not null" json:"description"`
	OrganiserID string        `gorm:"size:30;not null;index" json:"organiser_id"`
	Members     []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

// GroupMember represents a user's membership in a study group
type GroupMember struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	GroupID   string    `gorm:"size:50;not null;uniqueIndex:idx_group_member" json:"group_id"`
	Username  string    `gorm:"size:30;not null;uniqueIndex:idx_group_member" json:"username"`
	Status    string    `gorm:"size:10;not null;default:'pending'" json:"status"`
	Role      string    `gorm:"size:10;not null;default:'member'" json:"role"` // organiser, member
	JoinedAt  time.Time `json:"joined_at"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
}

// BeforeCreate hook is called before creating a study group
func (g *StudyGroup) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	if g.UpdatedAt.IsZero() {
		g.UpdatedAt = now
	}
	return nil
}

// TableName specifies the table name for the StudyGroup model
func (StudyGroup) TableName() string {
	return "study_group"
}

// TableName specifies the table name for the GroupMember model
func (GroupMember) TableName() string {
	return "group_member"
}

// CreateGroupRequest represents the data needed to create a new study group
type CreateGroupRequest struct {
	Name        string      `json:"name" binding:"required,max=100"`
	Subject     string      `json:"subject" binding:"required,max=60"`
	StudyLevel  StudyLevel  `json:"study_level" binding:"required,oneof=beginner intermediate advanced"`
	MeetingMode MeetingMode `json:"meeting_mode" binding:"required,oneof=in_person online hybrid"`
	Venue       *Venue      `json:"venue"`
	MaxMembers  int         `json:"max_members" binding:"required,min=2,max=100"`
	Description string      `json:"description" binding:"required,max=1000"`
}
