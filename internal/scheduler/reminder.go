package scheduler

import (
	"log"
	"time"

	"studyhub/internal/models"
)

// Threshold is one reminder lead time with its stored key and the label
// users see in notifications
type Threshold struct {
	Key   string
	Label string
	Lead  time.Duration
}

// Thresholds lists the supported reminder lead times, nearest first
var Thresholds = []Threshold{
	{Key: models.Threshold15Min, Label: "15 minutes", Lead: 15 * time.Minute},
	{Key: models.Threshold1Hour, Label: "1 hour", Lead: time.Hour},
	{Key: models.Threshold1Day, Label: "1 day", Lead: 24 * time.Hour},
}

const (
	// reminderWindow is how far past a threshold a session still counts
	// as due. Wider than the one-minute scan cadence so a slow or missed
	// tick cannot lose a reminder; exactly-once comes from ReminderSent
	// records, not from the window width.
	reminderWindow = 5 * time.Minute

	// scanLookahead covers the largest threshold plus the window slack
	scanLookahead = 24*time.Hour + reminderWindow
)

// ReminderStore is the slice of the persistence layer the scan reads
// and writes
type ReminderStore interface {
	UpcomingSessions(now time.Time, lookahead time.Duration) ([]models.StudySession, error)
	HasReminderBeenSent(sessionID, threshold string) (bool, error)
	RecordReminderSent(sessionID, username, threshold string) error
}

// Dispatcher delivers one reminder for a session. An error means the
// durable notification was not persisted and the reminder must not be
// marked sent.
type Dispatcher interface {
	Dispatch(session models.StudySession, threshold Threshold) error
}

// ReminderScan checks upcoming study sessions against the reminder
// thresholds once per tick
type ReminderScan struct {
	store      ReminderStore
	dispatcher Dispatcher
}

// NewReminderScan creates the scan job body
func NewReminderScan(store ReminderStore, dispatcher Dispatcher) *ReminderScan {
	return &ReminderScan{store: store, dispatcher: dispatcher}
}

// Tick runs one scan. Per-session failures are logged and the scan moves
// on; only a failure to load the sessions aborts the tick.
func (r *ReminderScan) Tick(now time.Time) error {
	sessions, err := r.store.UpcomingSessions(now, scanLookahead)
	if err != nil {
		return err
	}

	for i := range sessions {
		r.checkSession(sessions[i], now)
	}
	return nil
}

func (r *ReminderScan) checkSession(session models.StudySession, now time.Time) {
	for _, threshold := range dueThresholds(session.ScheduledStart.Sub(now)) {
		sent, err := r.store.HasReminderBeenSent(session.ID, threshold.Key)
		if err != nil {
			log.Printf("Error: reminder lookup for session %s failed: %v", session.ID, err)
			continue
		}
		if sent {
			continue
		}

		if err := r.dispatcher.Dispatch(session, threshold); err != nil {
			// Not recorded as sent, so the next tick retries
			log.Printf("Error: reminder dispatch for session %s (%s) failed: %v",
				session.ID, threshold.Key, err)
			continue
		}

		if err := r.store.RecordReminderSent(session.ID, session.Username, threshold.Key); err != nil {
			log.Printf("Error: failed to record reminder for session %s (%s): %v",
				session.ID, threshold.Key, err)
		}
	}
}

// dueThresholds classifies time-until-start against the reminder windows.
// A threshold T is due when T-window < delta <= T.
func dueThresholds(delta time.Duration) []Threshold {
	var due []Threshold
	for _, t := range Thresholds {
		if delta <= t.Lead && delta > t.Lead-reminderWindow {
			due = append(due, t)
		}
	}
	return due
}
