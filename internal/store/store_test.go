package store

import (
	"testing"
	"time"

	"studyhub/internal/database"
	"studyhub/internal/models"

	"gorm.io/gorm"
)

func openStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.OpenTest()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return New(db), db
}

func createAccount(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	account := models.Account{
		Username: username,
		GoogleID: "google-" + username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to create account %s: %v", username, err)
	}
}

func createSession(t *testing.T, db *gorm.DB, s models.StudySession) models.StudySession {
	t.Helper()
	if err := db.Create(&s).Error; err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return s
}

func TestUpcomingSessionsWindowAndStatus(t *testing.T) {
	s, db := openStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	inWindow := createSession(t, db, models.StudySession{
		Username: "alice", Title: "Soon", ScheduledStart: now.Add(30 * time.Minute),
	})
	createSession(t, db, models.StudySession{
		Username: "alice", Title: "Too far", ScheduledStart: now.Add(48 * time.Hour),
	})
	createSession(t, db, models.StudySession{
		Username: "alice", Title: "Already past", ScheduledStart: now.Add(-time.Minute),
	})
	createSession(t, db, models.StudySession{
		Username: "alice", Title: "Cancelled", ScheduledStart: now.Add(time.Hour),
		Status: models.SessionCancelled,
	})

	sessions, err := s.UpcomingSessions(now, 24*time.Hour)
	if err != nil {
		t.Fatalf("UpcomingSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != inWindow.ID {
		t.Fatalf("got %d sessions, want only %q", len(sessions), inWindow.Title)
	}
}

func TestUpcomingSessionsOrderedSoonestFirst(t *testing.T) {
	s, db := openStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	later := createSession(t, db, models.StudySession{
		Username: "alice", Title: "Later", ScheduledStart: now.Add(2 * time.Hour),
	})
	sooner := createSession(t, db, models.StudySession{
		Username: "bob", Title: "Sooner", ScheduledStart: now.Add(time.Hour),
	})

	sessions, err := s.UpcomingSessions(now, 24*time.Hour)
	if err != nil {
		t.Fatalf("UpcomingSessions failed: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != sooner.ID || sessions[1].ID != later.ID {
		t.Fatalf("unexpected order: %v", sessions)
	}
}

func TestReminderSentRoundTrip(t *testing.T) {
	s, _ := openStore(t)

	sent, err := s.HasReminderBeenSent("s1", models.Threshold15Min)
	if err != nil {
		t.Fatalf("HasReminderBeenSent failed: %v", err)
	}
	if sent {
		t.Fatal("no reminder recorded yet")
	}

	if err := s.RecordReminderSent("s1", "alice", models.Threshold15Min); err != nil {
		t.Fatalf("RecordReminderSent failed: %v", err)
	}

	sent, err = s.HasReminderBeenSent("s1", models.Threshold15Min)
	if err != nil {
		t.Fatalf("HasReminderBeenSent failed: %v", err)
	}
	if !sent {
		t.Fatal("recorded reminder not found")
	}

	// a different threshold for the same session is still unsent
	sent, err = s.HasReminderBeenSent("s1", models.Threshold1Hour)
	if err != nil {
		t.Fatalf("HasReminderBeenSent failed: %v", err)
	}
	if sent {
		t.Fatal("1hour threshold should be independent of 15min")
	}
}

func TestSaveGroupMessageSeedsReadBy(t *testing.T) {
	s, _ := openStore(t)

	message, err := s.SaveGroupMessage("g1", "alice", "hello")
	if err != nil {
		t.Fatalf("SaveGroupMessage failed: %v", err)
	}
	if string(message.ReadBy) != `["alice"]` {
		t.Fatalf("got read_by %s, want [\"alice\"]", message.ReadBy)
	}
}

func TestSaveDirectMessageDefaultsType(t *testing.T) {
	s, _ := openStore(t)

	message, err := s.SaveDirectMessage("alice", "bob", "hello", "")
	if err != nil {
		t.Fatalf("SaveDirectMessage failed: %v", err)
	}
	if message.Type != "text" {
		t.Fatalf("got type %q, want text", message.Type)
	}
	if message.Read {
		t.Fatal("new message must start unread")
	}
}

func TestStudyingFriendsBothDirections(t *testing.T) {
	s, db := openStore(t)

	rows := []models.Friendship{
		{Requester: "alice", Addressee: "bob", Status: models.FriendAccepted},
		{Requester: "carol", Addressee: "alice", Status: models.FriendAccepted},
		{Requester: "alice", Addressee: "dave", Status: models.FriendPending},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("failed to create friendship: %v", err)
		}
	}

	friends, err := s.StudyingFriends("alice")
	if err != nil {
		t.Fatalf("StudyingFriends failed: %v", err)
	}
	got := make(map[string]bool, len(friends))
	for _, f := range friends {
		got[f] = true
	}
	if len(friends) != 2 || !got["bob"] || !got["carol"] {
		t.Fatalf("got friends %v, want bob and carol", friends)
	}
}

func TestActiveFriendSessions(t *testing.T) {
	s, db := openStore(t)

	if err := db.Create(&models.Friendship{
		Requester: "alice", Addressee: "bob", Status: models.FriendAccepted,
	}).Error; err != nil {
		t.Fatalf("failed to create friendship: %v", err)
	}

	started := time.Now().Add(-20 * time.Minute)
	createSession(t, db, models.StudySession{
		Username: "bob", Title: "Calculus drills", Subject: "math",
		ScheduledStart: started, Status: models.SessionInProgress, StartedAt: &started,
	})
	createSession(t, db, models.StudySession{
		Username: "bob", Title: "Done earlier", ScheduledStart: started,
		Status: models.SessionCompleted,
	})
	createSession(t, db, models.StudySession{
		Username: "carol", Title: "Not a friend", ScheduledStart: started,
		Status: models.SessionInProgress, StartedAt: &started,
	})

	active, err := s.ActiveFriendSessions("alice")
	if err != nil {
		t.Fatalf("ActiveFriendSessions failed: %v", err)
	}
	if len(active) != 1 || active[0].Username != "bob" || active[0].Subject != "math" {
		t.Fatalf("unexpected active sessions: %+v", active)
	}
}

func TestIsApprovedMember(t *testing.T) {
	s, db := openStore(t)

	memberships := []models.GroupMember{
		{GroupID: "g1", Username: "alice", Status: models.MemberApproved, Role: "member"},
		{GroupID: "g1", Username: "bob", Status: models.MemberPending, Role: "member"},
	}
	for i := range memberships {
		if err := db.Create(&memberships[i]).Error; err != nil {
			t.Fatalf("failed to create membership: %v", err)
		}
	}

	for _, tc := range []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"bob", false},
		{"carol", false},
	} {
		got, err := s.IsApprovedMember(tc.username, "g1")
		if err != nil {
			t.Fatalf("IsApprovedMember(%s) failed: %v", tc.username, err)
		}
		if got != tc.want {
			t.Fatalf("IsApprovedMember(%s) = %v, want %v", tc.username, got, tc.want)
		}
	}

	members, err := s.ApprovedMemberUsernames("g1")
	if err != nil {
		t.Fatalf("ApprovedMemberUsernames failed: %v", err)
	}
	if len(members) != 1 || members[0] != "alice" {
		t.Fatalf("got members %v, want [alice]", members)
	}
}

func TestHasUnreadNotification(t *testing.T) {
	s, db := openStore(t)

	has, err := s.HasUnreadNotification("alice", "g1")
	if err != nil {
		t.Fatalf("HasUnreadNotification failed: %v", err)
	}
	if has {
		t.Fatal("no notification yet")
	}

	notification, err := s.CreateNotification("alice", models.NotifUnreadMessages,
		"New group messages", "You have unread messages in your study group",
		"g1", models.RelatedStudyGroup)
	if err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}

	has, err = s.HasUnreadNotification("alice", "g1")
	if err != nil {
		t.Fatalf("HasUnreadNotification failed: %v", err)
	}
	if !has {
		t.Fatal("unread notification not detected")
	}

	// notifications for other groups or other types do not count
	has, err = s.HasUnreadNotification("alice", "g2")
	if err != nil {
		t.Fatalf("HasUnreadNotification failed: %v", err)
	}
	if has {
		t.Fatal("g2 has no notification")
	}

	if err := db.Model(&models.Notification{}).
		Where("id = ?", notification.ID).Update("read", true).Error; err != nil {
		t.Fatalf("failed to mark read: %v", err)
	}
	has, err = s.HasUnreadNotification("alice", "g1")
	if err != nil {
		t.Fatalf("HasUnreadNotification failed: %v", err)
	}
	if has {
		t.Fatal("read notification must not count")
	}
}

func TestAccountByUsername(t *testing.T) {
	s, db := openStore(t)
	createAccount(t, db, "alice")

	account, err := s.AccountByUsername("alice")
	if err != nil {
		t.Fatalf("AccountByUsername failed: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("got email %q", account.Email)
	}

	if _, err := s.AccountByUsername("nobody"); err == nil {
		t.Fatal("expected an error for a missing account")
	}
}
