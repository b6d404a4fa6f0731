package scheduler

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// Backoff selects how the delay before a retry grows with attempts.
type Backoff string

const (
	// BackoffLinear waits BaseDelay * attemptsMade.
	BackoffLinear Backoff = "linear"
	// BackoffExponential waits a random duration in (0, BaseDelay * 2^(attemptsMade-1)].
	BackoffExponential Backoff = "exponential"
)

// ParseBackoff accepts "linear", "exponential" or "" (linear).
func ParseBackoff(s string) (Backoff, error) {
	switch Backoff(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackoffLinear:
		return BackoffLinear, nil
	case BackoffExponential:
		return BackoffExponential, nil
	default:
		return "", fmt.Errorf("unknown backoff %q", s)
	}
}

const maxDuration = time.Duration(1<<63 - 1)

// retryDelay is the wait after attempt number attempt failed. max <= 0
// means uncapped.
func retryDelay(strategy Backoff, base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	var d time.Duration
	switch strategy {
	case BackoffExponential:
		shift := attempt - 1
		if shift > 62 || base > maxDuration>>shift {
			d = maxDuration
		} else {
			d = base << shift
		}
	default:
		if base > maxDuration/time.Duration(attempt) {
			d = maxDuration
		} else {
			d = base * time.Duration(attempt)
		}
	}
	if max > 0 && d > max {
		d = max
	}
	if strategy == BackoffExponential {
		d = time.Duration(rand.Int64N(int64(d))) + 1
	}
	return d
}
