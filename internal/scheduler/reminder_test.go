package scheduler

import (
	"errors"
	"testing"
	"time"

	"studyhub/internal/models"
)

type fakeReminderStore struct {
	sessions    []models.StudySession
	sent        map[string]bool
	upcomingErr error
	recordErr   error
}

func newFakeReminderStore(sessions ...models.StudySession) *fakeReminderStore {
	return &fakeReminderStore{sessions: sessions, sent: make(map[string]bool)}
}

func (s *fakeReminderStore) UpcomingSessions(now time.Time, lookahead time.Duration) ([]models.StudySession, error) {
	if s.upcomingErr != nil {
		return nil, s.upcomingErr
	}
	var upcoming []models.StudySession
	for _, session := range s.sessions {
		if session.ScheduledStart.After(now) && !session.ScheduledStart.After(now.Add(lookahead)) {
			upcoming = append(upcoming, session)
		}
	}
	return upcoming, nil
}

func (s *fakeReminderStore) HasReminderBeenSent(sessionID, threshold string) (bool, error) {
	return s.sent[sessionID+"|"+threshold], nil
}

func (s *fakeReminderStore) RecordReminderSent(sessionID, username, threshold string) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.sent[sessionID+"|"+threshold] = true
	return nil
}

type dispatchCall struct {
	sessionID string
	threshold Threshold
}

type fakeDispatcher struct {
	calls []dispatchCall
	fail  int // fail the first n calls
}

func (d *fakeDispatcher) Dispatch(session models.StudySession, threshold Threshold) error {
	if d.fail > 0 {
		d.fail--
		return errors.New("dispatch failed")
	}
	d.calls = append(d.calls, dispatchCall{sessionID: session.ID, threshold: threshold})
	return nil
}

func session(id string, start time.Time) models.StudySession {
	return models.StudySession{
		ID:             id,
		Username:       "alice",
		Title:          "Linear algebra",
		ScheduledStart: start,
		Status:         models.SessionScheduled,
	}
}

// runTicks simulates the one-minute cadence from start for the given span
func runTicks(t *testing.T, scan *ReminderScan, start time.Time, span time.Duration) {
	t.Helper()
	for tick := time.Duration(0); tick <= span; tick += time.Minute {
		if err := scan.Tick(start.Add(tick)); err != nil {
			t.Fatalf("tick at +%v failed: %v", tick, err)
		}
	}
}

func TestFifteenMinuteReminderFiresExactlyOnce(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(session("s1", now.Add(15*time.Minute)))
	dispatcher := &fakeDispatcher{}
	scan := NewReminderScan(store, dispatcher)

	// Tick every minute across the whole session lifetime
	runTicks(t, scan, now, 20*time.Minute)

	if len(dispatcher.calls) != 1 {
		t.Fatalf("got %d dispatches, want exactly 1: %+v", len(dispatcher.calls), dispatcher.calls)
	}
	if dispatcher.calls[0].threshold.Label != "15 minutes" {
		t.Fatalf("got label %q, want %q", dispatcher.calls[0].threshold.Label, "15 minutes")
	}
	if !store.sent["s1|"+models.Threshold15Min] {
		t.Fatal("reminder not recorded as sent")
	}
}

func TestNoReminderAtSixtyOneMinutes(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(session("s1", now.Add(61*time.Minute)))
	dispatcher := &fakeDispatcher{}
	scan := NewReminderScan(store, dispatcher)

	if err := scan.Tick(now); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatalf("got %d dispatches, want none: %+v", len(dispatcher.calls), dispatcher.calls)
	}
}

func TestAllThresholdsFireOnceOverSessionLifetime(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(session("s1", now.Add(25*time.Hour)))
	dispatcher := &fakeDispatcher{}
	scan := NewReminderScan(store, dispatcher)

	runTicks(t, scan, now, 25*time.Hour)

	if len(dispatcher.calls) != 3 {
		t.Fatalf("got %d dispatches, want 3: %+v", len(dispatcher.calls), dispatcher.calls)
	}
	seen := map[string]int{}
	for _, call := range dispatcher.calls {
		seen[call.threshold.Key]++
	}
	for _, threshold := range Thresholds {
		if seen[threshold.Key] != 1 {
			t.Fatalf("threshold %s fired %d times, want 1", threshold.Key, seen[threshold.Key])
		}
	}
}

func TestFailedDispatchRetriesOnNextTick(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeReminderStore(session("s1", now.Add(15*time.Minute)))
	dispatcher := &fakeDispatcher{fail: 1}
	scan := NewReminderScan(store, dispatcher)

	if err := scan.Tick(now); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(dispatcher.calls) != 0 {
		t.Fatal("failed dispatch should not be counted")
	}
	if store.sent["s1|"+models.Threshold15Min] {
		t.Fatal("failed dispatch must not be recorded as sent")
	}

	// The window is wider than the cadence, so the next tick retries
	if err := scan.Tick(now.Add(time.Minute)); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("got %d dispatches after retry, want 1", len(dispatcher.calls))
	}
	if !store.sent["s1|"+models.Threshold15Min] {
		t.Fatal("successful retry not recorded")
	}
}

func TestStoreFailureAbortsTick(t *testing.T) {
	store := newFakeReminderStore()
	store.upcomingErr = errors.New("db down")
	dispatcher := &fakeDispatcher{}
	scan := NewReminderScan(store, dispatcher)

	if err := scan.Tick(time.Now()); err == nil {
		t.Fatal("expected an error when the session scan fails")
	}
	if len(dispatcher.calls) != 0 {
		t.Fatal("no dispatches expected on a failed tick")
	}
}

func TestDueThresholds(t *testing.T) {
	cases := []struct {
		delta time.Duration
		want  []string
	}{
		{15 * time.Minute, []string{models.Threshold15Min}},
		{11 * time.Minute, []string{models.Threshold15Min}},
		{10 * time.Minute, nil},
		{16 * time.Minute, nil},
		{time.Hour, []string{models.Threshold1Hour}},
		{57 * time.Minute, []string{models.Threshold1Hour}},
		{61 * time.Minute, nil},
		{24 * time.Hour, []string{models.Threshold1Day}},
		{24*time.Hour - 4*time.Minute, []string{models.Threshold1Day}},
		{24*time.Hour + time.Minute, nil},
		{-time.Minute, nil},
	}

	for _, tc := range cases {
		due := dueThresholds(tc.delta)
		if len(due) != len(tc.want) {
			t.Fatalf("delta %v: got %d thresholds, want %d", tc.delta, len(due), len(tc.want))
		}
		for i, threshold := range due {
			if threshold.Key != tc.want[i] {
				t.Fatalf("delta %v: got %s, want %s", tc.delta, threshold.Key, tc.want[i])
			}
		}
	}
}
