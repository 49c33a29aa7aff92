package app

import (
	"testing"
	"time"

	"quiz-attempt-service/internal/domain"
)

func TestCooldownGuard(t *testing.T) {
	guard := NewCooldownGuard(5 * time.Minute)
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	latest := &domain.AttemptRecord{CompletedAt: completed}

	tests := []struct {
		name      string
		latest    *domain.AttemptRecord
		now       time.Time
		eligible  bool
		remaining int
	}{
		{name: "no prior attempt", latest: nil, now: completed, eligible: true},
		{name: "same instant", latest: latest, now: completed, eligible: false, remaining: 300},
		{name: "two minutes later", latest: latest, now: completed.Add(2 * time.Minute), eligible: false, remaining: 180},
		{name: "partial second rounds up", latest: latest, now: completed.Add(4*time.Minute + 59*time.Second + 500*time.Millisecond), eligible: false, remaining: 1},
		{name: "exactly at retry time", latest: latest, now: completed.Add(5 * time.Minute), eligible: true},
		{name: "after window", latest: latest, now: completed.Add(5*time.Minute + time.Second), eligible: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Check(tt.latest, tt.now)
			if got.Eligible != tt.eligible {
				t.Fatalf("eligible = %v, want %v", got.Eligible, tt.eligible)
			}
			if got.RemainingSeconds != tt.remaining {
				t.Fatalf("remaining = %d, want %d", got.RemainingSeconds, tt.remaining)
			}
			if !tt.eligible && got.Message == "" {
				t.Fatalf("expected a retry message when blocked")
			}
		})
	}
}

func TestCooldownMessage(t *testing.T) {
	cases := map[int]string{
		300: "You can retake this quiz in 5 minutes.",
		61:  "You can retake this quiz in 1 minute 1 second.",
		45:  "You can retake this quiz in 45 seconds.",
	}
	for secs, want := range cases {
		if got := cooldownMessage(secs); got != want {
			t.Fatalf("cooldownMessage(%d) = %q, want %q", secs, got, want)
		}
	}
}

func TestCooldownMinutesRoundsUp(t *testing.T) {
	if got := NewCooldownGuard(90 * time.Second).Minutes(); got != 2 {
		t.Fatalf("expected 2 minutes, got %d", got)
	}
	if got := NewCooldownGuard(-time.Minute).Window(); got != 0 {
		t.Fatalf("negative window should clamp to zero, got %v", got)
	}
}

func TestCooldownGuardRetryAt(t *testing.T) {
	guard := NewCooldownGuard(5 * time.Minute)
	completed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	if got := guard.Check(nil, completed); got.RetryAt != nil {
		t.Fatalf("expected no retry time without a previous attempt, got %v", got.RetryAt)
	}
	got := guard.Check(&domain.AttemptRecord{CompletedAt: completed}, completed.Add(time.Minute))
	if got.RetryAt == nil || !got.RetryAt.Equal(completed.Add(5*time.Minute)) {
		t.Fatalf("unexpected retry time %v", got.RetryAt)
	}
}

func TestCooldownGuardContended(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	got := NewCooldownGuard(0).Contended(now)
	if got.Eligible || got.RemainingSeconds != 1 || got.Message == "" {
		t.Fatalf("unexpected contended decision %+v", got)
	}
	if got.RetryAt == nil || !got.RetryAt.Equal(now.Add(time.Second)) {
		t.Fatalf("unexpected retry time %v", got.RetryAt)
	}
}
