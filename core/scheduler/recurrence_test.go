package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestDayString(t *testing.T) {
	tests := []struct {
		days []int
		want string
	}{
		{days: []int{1, 3}, want: "MON,WED"},
		{days: []int{0, 6}, want: "SUN,SAT"},
		{days: []int{5, 1, 5}, want: "FRI,MON"},
		{days: []int{0, 1, 2, 3, 4, 5, 6}, want: "SUN,MON,TUE,WED,THU,FRI,SAT"},
	}
	for _, tt := range tests {
		r, err := NewRecurrence("07:30", tt.days)
		if err != nil {
			t.Fatalf("NewRecurrence(%v) error: %v", tt.days, err)
		}
		if got := r.DayString(); got != tt.want {
			t.Errorf("DayString(%v) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestNewRecurrenceRejectsBadInput(t *testing.T) {
	tests := []struct {
		clock string
		days  []int
		want  error
	}{
		{clock: "07:30", days: []int{7}, want: ErrInvalidDay},
		{clock: "07:30", days: []int{-1}, want: ErrInvalidDay},
		{clock: "07:30", days: nil, want: ErrInvalidDay},
		{clock: "24:00", days: []int{1}, want: ErrInvalidTime},
		{clock: "7:5", days: []int{1}, want: ErrInvalidTime},
		{clock: "seven", days: []int{1}, want: ErrInvalidTime},
	}
	for _, tt := range tests {
		if _, err := NewRecurrence(tt.clock, tt.days); !errors.Is(err, tt.want) {
			t.Errorf("NewRecurrence(%q, %v) error = %v, want %v", tt.clock, tt.days, err, tt.want)
		}
	}
}

func TestRecurrenceNext(t *testing.T) {
	r, err := NewRecurrence("07:30", []int{1, 3})
	if err != nil {
		t.Fatal(err)
	}
	if r.CronSpec() != "30 7 * * 1,3" {
		t.Fatalf("CronSpec = %q", r.CronSpec())
	}

	monday := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	next, err := r.Next(monday)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 10, 21, 7, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("Next = %v, want %v", next, want)
	}
}
