// Package notify turns due reminders into durable notifications and
// best-effort deliveries (email, realtime event).
package notify

import (
	"fmt"
	"log"

	"studyhub/internal/metrics"
	"studyhub/internal/models"
	"studyhub/internal/scheduler"
)

// ReminderTitle is the fixed title on session reminder notifications
const ReminderTitle = "Study session reminder"

// Store is the slice of the persistence layer the dispatcher needs
type Store interface {
	CreateNotification(recipient, notifType, title, message, relatedID, relatedType string) (*models.Notification, error)
	AccountByUsername(username string) (*models.Account, error)
}

// Emitter pushes an event to every connection in a user's room
type Emitter interface {
	EmitToUser(username, event string, payload interface{})
}

// Mailer sends the reminder email
type Mailer interface {
	SendSessionReminder(toEmail, toName string, session models.StudySession, leadLabel string) error
}

// Dispatcher persists a reminder notification, then optionally emails the
// session owner, then emits a realtime event to their room. Persistence is
// the durable record and comes first; email and the realtime push are
// best-effort and their failures only get logged.
type Dispatcher struct {
	store        Store
	emitter      Emitter
	mailer       Mailer
	emailEnabled bool
}

// NewDispatcher wires the dispatcher. mailer may be nil when the email
// feature flag is off.
func NewDispatcher(store Store, emitter Emitter, mailer Mailer, emailEnabled bool) *Dispatcher {
	return &Dispatcher{
		store:        store,
		emitter:      emitter,
		mailer:       mailer,
		emailEnabled: emailEnabled && mailer != nil,
	}
}

// ReminderPayload is the realtime event body for a session reminder
type ReminderPayload struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Dispatch delivers one reminder for session at the given threshold.
// A returned error means the notification was not persisted; the caller
// must not mark the reminder as sent.
func (d *Dispatcher) Dispatch(session models.StudySession, threshold scheduler.Threshold) error {
	message := fmt.Sprintf("Your study session '%s' starts in %s", session.Title, threshold.Label)

	notification, err := d.store.CreateNotification(
		session.Username,
		models.NotifSessionReminder,
		ReminderTitle,
		message,
		session.ID,
		models.RelatedStudySession,
	)
	if err != nil {
		return fmt.Errorf("failed to persist reminder notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(models.NotifSessionReminder).Inc()

	if d.emailEnabled {
		d.sendEmail(session, threshold.Label)
	}

	d.emitter.EmitToUser(session.Username, "reminder", ReminderPayload{
		Title:     notification.Title,
		Message:   notification.Message,
		SessionID: session.ID,
	})

	metrics.RemindersSent.WithLabelValues(threshold.Key).Inc()
	log.Printf("Reminder sent to %s for session %s (%s)", session.Username, session.ID, threshold.Key)
	return nil
}

func (d *Dispatcher) sendEmail(session models.StudySession, leadLabel string) {
	account, err := d.store.AccountByUsername(session.Username)
	if err != nil {
		log.Printf("Error: reminder email lookup for %s failed: %v", session.Username, err)
		return
	}

	name := account.FullName
	if name == "" {
		name = account.Username
	}
	if err := d.mailer.SendSessionReminder(account.Email, name, session, leadLabel); err != nil {
		log.Printf("Error: reminder email to %s failed: %v", account.Email, err)
	}
}
