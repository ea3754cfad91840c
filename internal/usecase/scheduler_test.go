package usecase

import (
	"testing"
	"time"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(SchedulerConfig{}, newTestScreener(t, testMarket()), testLogger(t))
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	return s
}

func TestSchedulerNextSameDay(t *testing.T) {
	s := newTestScheduler(t)
	loc, _ := time.LoadLocation("Asia/Ho_Chi_Minh")

	// Monday morning: the midday run is next.
	now := time.Date(2026, 8, 24, 9, 0, 0, 0, loc)
	next := s.Next(now)
	if next.Hour() != 11 || next.Minute() != 45 || next.Day() != 24 {
		t.Fatalf("expected 11:45 same day, got %v", next)
	}

	// Between runs: the post-close run is next.
	now = time.Date(2026, 8, 24, 12, 0, 0, 0, loc)
	next = s.Next(now)
	if next.Hour() != 15 || next.Minute() != 15 || next.Day() != 24 {
		t.Fatalf("expected 15:15 same day, got %v", next)
	}
}

func TestSchedulerSkipsWeekend(t *testing.T) {
	s := newTestScheduler(t)
	loc, _ := time.LoadLocation("Asia/Ho_Chi_Minh")

	// Friday after close: next run is Monday midday.
	now := time.Date(2026, 8, 28, 16, 0, 0, 0, loc)
	next := s.Next(now)
	if next.Weekday() != time.Monday || next.Day() != 31 {
		t.Fatalf("expected Monday 31st, got %v", next)
	}
	if next.Hour() != 11 || next.Minute() != 45 {
		t.Fatalf("expected the midday run, got %v", next)
	}
}

func TestSchedulerRejectsBadTimes(t *testing.T) {
	screener := newTestScreener(t, testMarket())
	if _, err := NewScheduler(SchedulerConfig{RunAt: []string{"25:00"}}, screener, testLogger(t)); err == nil {
		t.Fatalf("out-of-range time must be rejected")
	}
	if _, err := NewScheduler(SchedulerConfig{RunAt: []string{"noon"}}, screener, testLogger(t)); err == nil {
		t.Fatalf("unparseable time must be rejected")
	}
}
