package models

import "time"

// Notification types created by the server
const (
	NotifSessionReminder  = "session_reminder"
	NotifUnreadMessages   = "unread_messages"
	NotifFriendRequest    = "friend_request"
	NotifFriendAccepted   = "friend_accepted"
	NotifJoinRequest      = "group_join_request"
	NotifJoinApproved     = "group_join_approved"
	NotifJoinRejected     = "group_join_rejected"
)

// Related-entity types referenced by notifications
const (
	RelatedStudySession = "study_session"
	RelatedStudyGroup   = "study_group"
	RelatedAccount      = "account"
)

// Notification represents a message delivered to a user's inbox
type Notification struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	RecipientUsername string    `gorm:"size:30;not null;index:idx_notification_recipient_created" json:"recipient_username"`
	Type              string    `gorm:"size:30;not null" json:"type"`
	Title             string    `gorm:"size:120;not null" json:"title"`
	Message           string    `gorm:"type:text;not null" json:"message"`
	RelatedID         string    `gorm:"size:64" json:"related_id"`
	RelatedType       string    `gorm:"size:30" json:"related_type"`
	Read              bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt         time.Time `gorm:"not null;index:idx_notification_recipient_created" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notification"
}

// Reminder threshold keys stored on ReminderSent rows
const (
	Threshold15Min = "15min"
	Threshold1Hour = "1hour"
	Threshold1Day  = "24hour"
)

// ReminderSent tracks which session reminders have been sent to avoid duplicates.
// The (session, threshold) pair is unique so a threshold fires at most once.
type ReminderSent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;uniqueIndex:idx_reminder_session_threshold" json:"session_id"`
	Username  string    `gorm:"size:30;not null;index" json:"username"`
	Threshold string    `gorm:"size:10;not null;uniqueIndex:idx_reminder_session_threshold" json:"threshold"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
}

// TableName specifies the table name for the ReminderSent model
func (ReminderSent) TableName() string {
	return "reminder_sent"
}
