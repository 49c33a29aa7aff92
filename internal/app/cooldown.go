package app

import (
	"fmt"
	"strings"
	"time"

	"quiz-attempt-service/internal/domain"
)

// DefaultCooldown applies when no cooldown is configured.
const DefaultCooldown = 5 * time.Minute

// CooldownGuard decides whether a new attempt is allowed given the latest one.
// It has no side effects; callers pass the clock reading.
type CooldownGuard struct {
	window time.Duration
}

func NewCooldownGuard(window time.Duration) CooldownGuard {
	if window < 0 {
		window = 0
	}
	return CooldownGuard{window: window}
}

// Window returns the configured cooldown duration.
func (g CooldownGuard) Window() time.Duration {
	return g.window
}

// Minutes returns the window in whole minutes, rounded up.
func (g CooldownGuard) Minutes() int {
	return int((g.window + time.Minute - 1) / time.Minute)
}

// RetryAt is the first instant a new attempt is allowed after completedAt.
func (g CooldownGuard) RetryAt(completedAt time.Time) time.Time {
	return completedAt.Add(g.window)
}

// Check evaluates eligibility at now.
func (g CooldownGuard) Check(latest *domain.AttemptRecord, now time.Time) domain.CooldownDecision {
	if latest == nil {
		return domain.CooldownDecision{Eligible: true}
	}
	retryAt := g.RetryAt(latest.CompletedAt)
	if !now.Before(retryAt) {
		return domain.CooldownDecision{Eligible: true, RetryAt: &retryAt}
	}
	return blocked(retryAt, int((retryAt.Sub(now)+time.Second-1)/time.Second))
}

// Contended is the verdict when another attempt of the pair was recorded at the
// same instant, which a zero window would otherwise let through twice.
func (g CooldownGuard) Contended(now time.Time) domain.CooldownDecision {
	return blocked(now.Add(time.Second), 1)
}

func blocked(retryAt time.Time, remaining int) domain.CooldownDecision {
	return domain.CooldownDecision{
		Eligible:         false,
		RetryAt:          &retryAt,
		RemainingSeconds: remaining,
		Message:          cooldownMessage(remaining),
	}
}

func cooldownMessage(remainingSeconds int) string {
	return fmt.Sprintf("You can retake this quiz in %s.", humanizeSeconds(remainingSeconds))
}

func humanizeSeconds(total int) string {
	minutes, seconds := total/60, total%60
	parts := make([]string, 0, 2)
	if minutes > 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	if seconds > 0 || minutes == 0 {
		parts = append(parts, plural(seconds, "second"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
