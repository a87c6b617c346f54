package quote

import "time"

// MaxRetries caps automatic warm-up retries. Past the cap the session stays
// in the warming-up state and waits for a manual retry.
const MaxRetries = 6

const (
	backoffBase = 2 * time.Second
	backoffMax  = 30 * time.Second
)

// NextDelay returns the backoff delay before retry number attempt (1-based):
// min(2s * 2^(attempt-1), 30s). Attempts below 1 are treated as 1.
func NextDelay(attempt int) time.Duration {
	return Backoff(backoffBase, backoffMax)(attempt)
}

// Backoff returns a delay function that doubles base per attempt up to max.
// Non-positive base or max fall back to the package defaults.
func Backoff(base, max time.Duration) func(attempt int) time.Duration {
	if base <= 0 {
		base = backoffBase
	}
	if max <= 0 {
		max = backoffMax
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		if d > max {
			return max
		}
		return d
	}
}
