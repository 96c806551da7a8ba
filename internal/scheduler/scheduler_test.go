package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestNew_ValidTimezone(t *testing.T) {
	s, err := New(context.Background(), "America/New_York")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()
	if s.Location().String() != "America/New_York" {
		t.Errorf("expected America/New_York, got %s", s.Location().String())
	}
}

func TestNew_InvalidTimezone(t *testing.T) {
	if _, err := New(context.Background(), "Invalid/Zone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestSchedule(t *testing.T) {
	s, err := New(context.Background(), "UTC")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	job := func(context.Context) error { return nil }
	if err := s.Schedule("0 7 * * *", job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := s.entryID

	if err := s.Schedule("30 6 * * 1-5", job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.entryID == first {
		t.Error("expected the entry to be replaced")
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}

	if err := s.Schedule("not a cron", job); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestNextAfter(t *testing.T) {
	loc := time.FixedZone("PDT", -7*60*60)
	from := time.Date(2025, 10, 20, 8, 0, 0, 0, loc)

	next, err := NextAfter("0 7 * * *", from, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 10, 21, 7, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Errorf("NextAfter = %v, want %v", next, want)
	}

	if _, err := NextAfter("61 * * * *", from, loc); err == nil {
		t.Error("expected error for invalid expression")
	}
}
