package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GroupMessage represents a chat message in a study group
type GroupMessage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GroupID   string         `gorm:"size:50;not null;index:idx_group_messages_group_created" json:"group_id"`
	Username  string         `gorm:"size:30;not null;index" json:"username"`
	Content   string         `gorm:"type:text;not null;size:1000" json:"content"`
	ReadBy    datatypes.JSON `gorm:"type:json;default:'[]'" json:"read_by"`
	CreatedAt time.Time      `gorm:"not null;index:idx_group_messages_group_created" json:"created_at"`
}

// BeforeCreate hook is called before creating a new group message
func (m *GroupMessage) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return nil
}

// TableName specifies the table name for the GroupMessage model
func (GroupMessage) TableName() string {
	return "group_message"
}

// DirectMessage represents a private message between two users
type DirectMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Sender    string    `gorm:"size:30;not null;index:idx_direct_conversation" json:"sender"`
	Receiver  string    `gorm:"size:30;not null;index:idx_direct_conversation" json:"receiver"`
	Content   string    `gorm:"type:text;not null;size:1000" json:"content"`
	Type      string    `gorm:"size:20;not null;default:'text'" json:"type"` // text, link, file
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"not null;index:idx_direct_conversation" json:"created_at"`
}

// BeforeCreate hook is called before creating a new direct message
func (m *DirectMessage) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Type == "" {
		m.Type = "text"
	}
	return nil
}

// TableName specifies the table name for the DirectMessage model
func (DirectMessage) TableName() string {
	return "direct_message"
}

// SendMessageRequest represents the data needed to send a group message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}
