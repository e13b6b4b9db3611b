// Package store implements the persistence operations consumed by the
// scheduler, the notification dispatcher and the realtime hub. REST
// handlers talk to GORM directly; background subsystems go through this
// type so their collaborator can be substituted in tests.
package store

import (
	"fmt"
	"time"

	"studyhub/internal/models"

	"gorm.io/gorm"
)

// Store wraps the database for the background subsystems
type Store struct {
	db *gorm.DB
}

// New creates a Store over db
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// UpcomingSessions returns scheduled sessions starting within lookahead
// of now, soonest first
func (s *Store) UpcomingSessions(now time.Time, lookahead time.Duration) ([]models.StudySession, error) {
	var sessions []models.StudySession
	err := s.db.
		Where("status = ? AND scheduled_start > ? AND scheduled_start <= ?",
			models.SessionScheduled, now, now.Add(lookahead)).
		Order("scheduled_start ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming sessions: %w", err)
	}
	return sessions, nil
}

// HasReminderBeenSent reports whether a reminder for the given session
// and threshold was already recorded
func (s *Store) HasReminderBeenSent(sessionID, threshold string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ReminderSent{}).
		Where("session_id = ? AND threshold = ?", sessionID, threshold).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check sent reminders: %w", err)
	}
	return count > 0, nil
}

// RecordReminderSent marks the (session, threshold) pair as handled
func (s *Store) RecordReminderSent(sessionID, username, threshold string) error {
	record := models.ReminderSent{
		SessionID: sessionID,
		Username:  username,
		Threshold: threshold,
		SentAt:    time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record sent reminder: %w", err)
	}
	return nil
}

// CreateNotification persists a notification for recipient and returns it
func (s *Store) CreateNotification(recipient, notifType, title, message, relatedID, relatedType string) (*models.Notification, error) {
	notification := models.Notification{
		RecipientUsername: recipient,
		Type:              notifType,
		Title:             title,
		Message:           message,
		RelatedID:         relatedID,
		RelatedType:       relatedType,
		CreatedAt:         time.Now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &notification, nil
}

// AccountByUsername loads a single account
func (s *Store) AccountByUsername(username string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("username = ?", username).First(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", username, err)
	}
	return &account, nil
}

// SaveDirectMessage persists a private message between two users
func (s *Store) SaveDirectMessage(sender, receiver, content, msgType string) (*models.DirectMessage, error) {
	message := models.DirectMessage{
		Sender:   sender,
		Receiver: receiver,
		Content:  content,
		Type:     msgType,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to save direct message: %w", err)
	}
	return &message, nil
}

// SaveGroupMessage persists a group chat message. The sender starts in
// read_by so unread counts exclude their own messages.
func (s *Store) SaveGroupMessage(groupID, sender, content string) (*models.GroupMessage, error) {
	message := models.GroupMessage{
		GroupID:  groupID,
		Username: sender,
		Content:  content,
		ReadBy:   []byte(fmt.Sprintf("[%q]", sender)),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, fmt.Errorf("failed to save group message: %w", err)
	}
	return &message, nil
}

// IsApprovedMember reports whether username is an approved member of the group
func (s *Store) IsApprovedMember(username, groupID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND username = ? AND status = ?", groupID, username, models.MemberApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

// ApprovedMemberUsernames lists the approved members of a group
func (s *Store) ApprovedMemberUsernames(groupID string) ([]string, error) {
	var usernames []string
	err := s.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, models.MemberApproved).
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	return usernames, nil
}

// StudyingFriends returns the user's study network: the usernames on the
// accepted side of their friendships. This is the audience for
// friend-started-study events.
func (s *Store) StudyingFriends(username string) ([]string, error) {
	var friendships []models.Friendship
	err := s.db.
		Where("status = ? AND (requester = ? OR addressee = ?)",
			models.FriendAccepted, username, username).
		Find(&friendships).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load friendships: %w", err)
	}

	friends := make([]string, 0, len(friendships))
	for i := range friendships {
		friends = append(friends, friendships[i].Other(username))
	}
	return friends, nil
}

// FriendSession describes a friend together with their running study session
type FriendSession struct {
	Username  string     `json:"username"`
	SessionID string     `json:"session_id"`
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// ActiveFriendSessions returns the user's friends that are studying right now
func (s *Store) ActiveFriendSessions(username string) ([]FriendSession, error) {
	friends, err := s.StudyingFriends(username)
	if err != nil {
		return nil, err
	}
	if len(friends) == 0 {
		return []FriendSession{}, nil
	}

	var sessions []models.StudySession
	err = s.db.
		Where("username IN ? AND status = ?", friends, models.SessionInProgress).
		Order("started_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load friend sessions: %w", err)
	}

	active := make([]FriendSession, 0, len(sessions))
	for i := range sessions {
		active = append(active, FriendSession{
			Username:  sessions[i].Username,
			SessionID: sessions[i].ID,
			Title:     sessions[i].Title,
			Subject:   sessions[i].Subject,
			StartedAt: sessions[i].StartedAt,
		})
	}
	return active, nil
}

// HasUnreadNotification reports whether the user already has an unread
// notification about new messages in the given group
func (s *Store) HasUnreadNotification(username, groupID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_username = ? AND type = ? AND related_id = ? AND read = ?",
			username, models.NotifUnreadMessages, groupID, false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check unread notifications: %w", err)
	}
	return count > 0, nil
}
