package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNextDaily(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC) // a Monday

	next := NextDaily(base, 9, 0)
	if want := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("same-day fire: got %v, want %v", next, want)
	}

	next = NextDaily(base, 0, 10)
	if want := time.Date(2025, 3, 11, 0, 10, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next-day fire: got %v, want %v", next, want)
	}

	// Exactly at the fire time rolls to the following day
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	next = NextDaily(at, 9, 0)
	if want := at.Add(24 * time.Hour); !next.Equal(want) {
		t.Fatalf("boundary fire: got %v, want %v", next, want)
	}
}

func TestNextWeekly(t *testing.T) {
	base := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC) // a Monday

	next := NextWeekly(base, time.Sunday, 3, 0)
	if want := time.Date(2025, 3, 16, 3, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("sunday fire: got %v, want %v", next, want)
	}
	if next.Weekday() != time.Sunday {
		t.Fatalf("expected sunday, got %v", next.Weekday())
	}

	// Same weekday later hour stays in the same day
	next = NextWeekly(base, time.Monday, 23, 0)
	if want := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("same-day weekly fire: got %v, want %v", next, want)
	}
}

func TestJobIsolation(t *testing.T) {
	s := New(nil)

	var panics, errored, healthy atomic.Int32
	s.AddEvery("panicking", 5*time.Millisecond, func(time.Time) error {
		panics.Add(1)
		panic("boom")
	})
	s.AddEvery("failing", 5*time.Millisecond, func(time.Time) error {
		errored.Add(1)
		return errors.New("store down")
	})
	s.AddEvery("healthy", 5*time.Millisecond, func(time.Time) error {
		healthy.Add(1)
		return nil
	})

	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	if healthy.Load() < 2 {
		t.Fatalf("healthy job ran %d times, want at least 2", healthy.Load())
	}
	// A panicking or failing job keeps its own schedule too
	if panics.Load() < 2 {
		t.Fatalf("panicking job ran %d times, want at least 2", panics.Load())
	}
	if errored.Load() < 2 {
		t.Fatalf("failing job ran %d times, want at least 2", errored.Load())
	}
}

func TestStopWaitsForInflightBody(t *testing.T) {
	s := New(nil)

	started := make(chan struct{})
	var finished atomic.Bool
	s.AddEvery("slow", time.Millisecond, func(time.Time) error {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	s.Start()
	<-started
	s.Stop()

	if !finished.Load() {
		t.Fatal("Stop returned before the running body finished")
	}
}

func TestAddAfterStartIgnored(t *testing.T) {
	s := New(nil)
	s.Start()
	defer s.Stop()

	var ran atomic.Bool
	s.AddEvery("late", time.Millisecond, func(time.Time) error {
		ran.Store(true)
		return nil
	})
	time.Sleep(20 * time.Millisecond)
	if ran.Load() {
		t.Fatal("job added after Start should not run")
	}
}
