package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"
)

// Class is the retry classification of a failed call.
type Class int

const (
	// ClassPermanent failures are surfaced without retry.
	ClassPermanent Class = iota
	// ClassTransient failures (connection reset, DNS, overload) may be retried.
	ClassTransient
	// ClassTimeout marks an attempt that outlived its deadline. Retried like transient.
	ClassTimeout
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransientError wraps a failure expected to clear on retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Op == "" {
		return "transient: " + e.Err.Error()
	}
	return e.Op + ": transient: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError wraps a failure that retrying cannot fix (auth, bad request).
type PermanentError struct {
	Op  string
	Err error
}

func (e *PermanentError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error { return e.Err }

// TimeoutError reports an attempt abandoned after its deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("attempt timed out after %s", e.After)
}

// Timeout lets TimeoutError satisfy the net.Error style timeout check.
func (e *TimeoutError) Timeout() bool { return true }

// Transient marks err as retryable. A nil err stays nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// Permanent marks err as not retryable. A nil err stays nil.
func Permanent(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Op: op, Err: err}
}

// Classify maps err onto the retry taxonomy by type. The outermost marker
// in the wrap chain wins; errors that carry none are permanent.
func Classify(err error) Class {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch e.(type) {
		case *TimeoutError:
			return ClassTimeout
		case *TransientError:
			return ClassTransient
		case *PermanentError:
			return ClassPermanent
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	return ClassPermanent
}

// IsRetryable reports whether err is transient or a timeout.
func IsRetryable(err error) bool {
	c := Classify(err)
	return c == ClassTransient || c == ClassTimeout
}

// FromNetError classifies a transport-level failure from an HTTP client or
// dialer. Connection resets, refusals, DNS failures and network timeouts
// are transient; cancellation is returned unchanged; anything else is permanent.
func FromNetError(op string, err error) error {
	if err == nil {
		return nil
	}
	var tr *TransientError
	var pe *PermanentError
	var te *TimeoutError
	if errors.As(err, &tr) || errors.As(err, &pe) || errors.As(err, &te) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Transient(op, err)
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return Transient(op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Transient(op, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transient(op, err)
	}
	return Permanent(op, err)
}

// FromStatus classifies a non-2xx HTTP response. Request timeout, too early,
// rate limiting and 5xx are transient; other statuses are permanent.
func FromStatus(op string, code int, body string) error {
	err := fmt.Errorf("http %d %s: %s", code, http.StatusText(code), body)
	switch {
	case code == http.StatusRequestTimeout, code == http.StatusTooEarly,
		code == http.StatusTooManyRequests, code >= 500:
		return Transient(op, err)
	default:
		return Permanent(op, err)
	}
}
