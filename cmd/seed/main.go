// Command seed fills the database with demo data for local development:
// accounts, friendships, study groups, sessions past and upcoming,
// chat history and notifications.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"studyhub/internal/config"
	"studyhub/internal/database"
	"studyhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var subjects = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "History",
	"Economics", "Computer Science", "Spanish", "Statistics", "Philosophy",
}

func main() {
	accounts := flag.Int("accounts", 20, "number of accounts to create")
	force := flag.Bool("force", false, "seed even when accounts already exist")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.Load()
	if err := database.InitDB(cfg.DBDriver, cfg.SQLitePath); err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	db := database.GetDB()

	var existing int64
	if err := db.Model(&models.Account{}).Count(&existing).Error; err != nil {
		log.Fatal("Failed to inspect database: ", err)
	}
	if existing > 0 && !*force {
		log.Fatalf("Database already has %d accounts; rerun with -force to seed anyway", existing)
	}

	gofakeit.Seed(time.Now().UnixNano())

	usernames := seedAccounts(db, *accounts)
	seedFriendships(db, usernames)
	groupIDs := seedGroups(db, usernames)
	seedSessions(db, usernames)
	seedMessages(db, usernames, groupIDs)
	seedNotifications(db)

	log.Printf("Seeded %d accounts, %d groups", len(usernames), len(groupIDs))
}

func seedAccounts(db *gorm.DB, count int) []string {
	usernames := make([]string, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Word(), gofakeit.Number(10, 999))
		account := models.Account{
			Username:         username,
			GoogleID:         gofakeit.UUID(),
			Email:            gofakeit.Email(),
			EmailVerified:    true,
			FullName:         gofakeit.Name(),
			Bio:              gofakeit.Sentence(8),
			Timezone:         "UTC",
			DailyGoalMinutes: gofakeit.Number(3, 24) * 10,
		}
		if err := db.Create(&account).Error; err != nil {
			log.Printf("Warning: failed to create account %s: %v", username, err)
			continue
		}
		usernames = append(usernames, username)
	}
	return usernames
}

func seedFriendships(db *gorm.DB, usernames []string) {
	for i := range usernames {
		for j := i + 1; j < len(usernames); j++ {
			if rand.Intn(4) != 0 {
				continue
			}
			status := models.FriendAccepted
			var responded *time.Time
			if rand.Intn(5) == 0 {
				status = models.FriendPending
			} else {
				t := time.Now().Add(-time.Duration(rand.Intn(720)) * time.Hour)
				responded = &t
			}
			friendship := models.Friendship{
				Requester:   usernames[i],
				Addressee:   usernames[j],
				Status:      status,
				CreatedAt:   time.Now().Add(-time.Duration(rand.Intn(1440)) * time.Hour),
				RespondedAt: responded,
			}
			if err := db.Create(&friendship).Error; err != nil {
				log.Printf("Warning: failed to create friendship: %v", err)
			}
		}
	}
}

func seedGroups(db *gorm.DB, usernames []string) []string {
	levels := []models.StudyLevel{models.Beginner, models.Intermediate, models.Advanced}
	modes := []models.MeetingMode{models.MeetOnline, models.MeetInPerson, models.MeetHybrid}

	groupIDs := make([]string, 0, len(usernames)/3)
	for i := 0; i < len(usernames)/3; i++ {
		organiser := usernames[rand.Intn(len(usernames))]
		subject := subjects[rand.Intn(len(subjects))]
		group := models.StudyGroup{
			ID:          fmt.Sprintf("%s-%d", gofakeit.Word(), gofakeit.Number(100000, 999999)),
			Name:        fmt.Sprintf("%s %s", subject, gofakeit.NounCollectiveThing()),
			Subject:     subject,
			StudyLevel:  levels[rand.Intn(len(levels))],
			MeetingMode: modes[rand.Intn(len(modes))],
			MaxMembers:  gofakeit.Number(4, 20),
			Description: gofakeit.Paragraph(1, 3, 12, " "),
			OrganiserID: organiser,
		}
		if err := db.Create(&group).Error; err != nil {
			log.Printf("Warning: failed to create group: %v", err)
			continue
		}
		groupIDs = append(groupIDs, group.ID)

		members := map[string]bool{organiser: true}
		db.Create(&models.GroupMember{
			GroupID: group.ID, Username: organiser,
			Status: models.MemberApproved, Role: "organiser",
			JoinedAt: time.Now(), CreatedAt: time.Now(),
		})
		for len(members) < 4 && len(members) < len(usernames) {
			member := usernames[rand.Intn(len(usernames))]
			if members[member] {
				continue
			}
			members[member] = true
			db.Create(&models.GroupMember{
				GroupID: group.ID, Username: member,
				Status: models.MemberApproved, Role: "member",
				JoinedAt: time.Now(), CreatedAt: time.Now(),
			})
		}
	}
	return groupIDs
}

func seedSessions(db *gorm.DB, usernames []string) {
	for _, username := range usernames {
		// A week of completed history
		for day := 1; day <= 7; day++ {
			if rand.Intn(3) == 0 {
				continue
			}
			start := time.Now().UTC().AddDate(0, 0, -day).Add(-time.Duration(rand.Intn(8)) * time.Hour)
			duration := time.Duration(gofakeit.Number(3, 12)*10) * time.Minute
			end := start.Add(duration)
			db.Create(&models.StudySession{
				Username:        username,
				Title:           fmt.Sprintf("%s review", subjects[rand.Intn(len(subjects))]),
				Subject:         subjects[rand.Intn(len(subjects))],
				ScheduledStart:  start,
				DurationMinutes: int(duration.Minutes()),
				Status:          models.SessionCompleted,
				StartedAt:       &start,
				CompletedAt:     &end,
			})
		}

		// A few upcoming sessions for the reminder scan to find
		for i := 0; i < rand.Intn(3)+1; i++ {
			db.Create(&models.StudySession{
				Username:        username,
				Title:           fmt.Sprintf("%s prep", subjects[rand.Intn(len(subjects))]),
				Subject:         subjects[rand.Intn(len(subjects))],
				ScheduledStart:  time.Now().Add(time.Duration(gofakeit.Number(1, 72)) * time.Hour),
				DurationMinutes: gofakeit.Number(3, 12) * 10,
			})
		}
	}
}

func seedMessages(db *gorm.DB, usernames []string, groupIDs []string) {
	var friendships []models.Friendship
	db.Where("status = ?", models.FriendAccepted).Find(&friendships)
	for _, f := range friendships {
		for i := 0; i < rand.Intn(6); i++ {
			sender, receiver := f.Requester, f.Addressee
			if rand.Intn(2) == 0 {
				sender, receiver = receiver, sender
			}
			db.Create(&models.DirectMessage{
				Sender:    sender,
				Receiver:  receiver,
				Content:   gofakeit.Sentence(gofakeit.Number(3, 12)),
				Type:      "text",
				Read:      rand.Intn(2) == 0,
				CreatedAt: time.Now().Add(-time.Duration(rand.Intn(72)) * time.Hour),
			})
		}
	}

	for _, groupID := range groupIDs {
		var members []string
		db.Model(&models.GroupMember{}).
			Where("group_id = ? AND status = ?", groupID, models.MemberApproved).
			Pluck("username", &members)
		if len(members) == 0 {
			continue
		}
		for i := 0; i < rand.Intn(10); i++ {
			sender := members[rand.Intn(len(members))]
			db.Create(&models.GroupMessage{
				GroupID:   groupID,
				Username:  sender,
				Content:   gofakeit.Sentence(gofakeit.Number(3, 12)),
				ReadBy:    []byte(fmt.Sprintf("[%q]", sender)),
				CreatedAt: time.Now().Add(-time.Duration(rand.Intn(72)) * time.Hour),
			})
		}
	}
}

func seedNotifications(db *gorm.DB) {
	var pending []models.Friendship
	db.Where("status = ?", models.FriendPending).Find(&pending)
	for _, f := range pending {
		db.Create(&models.Notification{
			RecipientUsername: f.Addressee,
			Type:              models.NotifFriendRequest,
			Title:             "New friend request",
			Message:           fmt.Sprintf("%s wants to be your study friend", f.Requester),
			RelatedID:         f.Requester,
			RelatedType:       models.RelatedAccount,
			CreatedAt:         f.CreatedAt,
		})
	}
}
