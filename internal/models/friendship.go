package models

import "time"

// Friendship status values
const (
	FriendPending  = "pending"
	FriendAccepted = "accepted"
	FriendDeclined = "declined"
)

// Friendship represents a friend relationship between two users.
// Requester sent the request; Addressee answers it.
type Friendship struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Requester   string     `gorm:"size:30;not null;uniqueIndex:idx_friend_pair" json:"requester"`
	Addressee   string     `gorm:"size:30;not null;uniqueIndex:idx_friend_pair" json:"addressee"`
	Status      string     `gorm:"size:10;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// TableName specifies the table name for the Friendship model
func (Friendship) TableName() string {
	return "friendship"
}

// Involves reports whether the given user is one side of the friendship
func (f *Friendship) Involves(username string) bool {
	return f.Requester == username || f.Addressee == username
}

// Other returns the other side of the friendship relative to username
func (f *Friendship) Other(username string) string {
	if f.Requester == username {
		return f.Addressee
	}
	return f.Requester
}

// FriendRequestBody represents the data needed to send a friend request
type FriendRequestBody struct {
	Username string `json:"username" binding:"required,alphanum,min=3,max=30"`
}
