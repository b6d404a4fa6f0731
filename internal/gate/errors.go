package gate

import "errors"

// UnavailableError is returned while the backend's verdict is negative.
// Reason is the probe's own explanation.
type UnavailableError struct {
	Backend string
	Model   string
	Reason  string
}

func (e *UnavailableError) Error() string {
	id := e.Backend
	if e.Model != "" {
		id += "/" + e.Model
	}
	return "backend " + id + " unavailable: " + e.Reason
}

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// Reason extracts the captured reason from an unavailable error, or "".
func Reason(err error) string {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return ""
}
