package scheduler

import "errors"

// ConfigError reports an invalid scheduler config or submission policy.
// It is returned synchronously; the item is never enqueued.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string { return "invalid " + e.Field + ": " + e.Reason }

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

var (
	// ErrDrained is delivered to items rejected by Drain before dispatch.
	ErrDrained = errors.New("scheduler drained: item rejected before dispatch")
	// ErrClosed is returned for submissions after Close and delivered to
	// items still pending when Close runs.
	ErrClosed = errors.New("scheduler closed")
)
