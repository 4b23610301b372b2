package service

import (
	"reflect"
	"testing"
	"time"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

func TestRemainingSeconds(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		duration int
		now      time.Time
		want     float64
	}{
		{"just started", 30, start, 1800},
		{"halfway", 30, start.Add(15 * time.Minute), 900},
		{"one second left", 30, start.Add(30*time.Minute - time.Second), 1},
		{"exactly at deadline", 30, start.Add(30 * time.Minute), 0},
		{"past deadline clamps to zero", 30, start.Add(45 * time.Minute), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingSeconds(start, tt.duration, tt.now)
			if got != tt.want {
				t.Errorf("RemainingSeconds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemainingSecondsFixedByFirstStart(t *testing.T) {
	// A resume 10 minutes in must see 10 minutes gone, not a fresh clock.
	start := time.Now().Add(-10 * time.Minute)
	got := RemainingSeconds(start, 30, time.Now())
	if got > 1201 || got < 1199 {
		t.Errorf("RemainingSeconds() = %v, want ~1200", got)
	}
}

func TestIsLate(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	grace := 30 * time.Second

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"well before deadline", start.Add(20 * time.Minute), false},
		{"at deadline", start.Add(30 * time.Minute), false},
		{"inside grace", start.Add(30*time.Minute + 20*time.Second), false},
		{"at grace boundary", start.Add(30*time.Minute + 30*time.Second), false},
		{"past grace", start.Add(30*time.Minute + 31*time.Second), true},
		{"long overdue", start.Add(2 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLate(start, 30, grace, tt.now); got != tt.want {
				t.Errorf("IsLate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeadline(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	want := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)
	if got := Deadline(start, 90); !got.Equal(want) {
		t.Errorf("Deadline() = %v, want %v", got, want)
	}
}

func TestFreshestAnswers(t *testing.T) {
	persisted := map[string]int{"q1": 2, "q2": 0}
	cached := map[string]int{"q1": 3}

	tests := []struct {
		name      string
		status    model.SubmissionStatus
		persisted map[string]int
		cached    map[string]int
		want      map[string]int
	}{
		{"in progress prefers cache", model.SubmissionStatusInProgress, persisted, cached, cached},
		{"in progress with empty cache", model.SubmissionStatusInProgress, persisted, nil, persisted},
		// An autosave racing a finalize can write the hash back after it was
		// evicted; the finalized row must win regardless.
		{"submitted ignores cache", model.SubmissionStatusSubmitted, persisted, cached, persisted},
		{"submitted with nil persisted", model.SubmissionStatusSubmitted, nil, cached, map[string]int{}},
		{"nothing anywhere", model.SubmissionStatusInProgress, nil, nil, map[string]int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := freshestAnswers(tt.status, tt.persisted, tt.cached)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("freshestAnswers() = %v, want %v", got, tt.want)
			}
		})
	}
}
