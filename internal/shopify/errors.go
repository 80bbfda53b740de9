package shopify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// RemoteError is a transport or API-level failure from the platform.
// Status 429 carries the explicit wait duration from the Retry-After
// header when the platform provided one.
type RemoteError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter time.Duration
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s — %s", e.Status, e.Code, e.Message)
}

// RejectionError carries structured field-level errors the platform
// returned alongside (or instead of) a created entity. Rejections are
// never retried.
type RejectionError struct {
	Handle     string
	PlatformID string // non-empty when a shell entity was created anyway
	Errors     []UserError
}

func (e *RejectionError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ue := range e.Errors {
		parts[i] = ue.String()
	}
	return fmt.Sprintf("platform rejected %s: %s", e.Handle, strings.Join(parts, "; "))
}

// PartialCreate reports whether the rejection left a shell entity
// behind on the platform.
func (e *RejectionError) PartialCreate() bool {
	return e.PlatformID != ""
}

// Outcome classifies a dispatch error for the retry loop.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRetryable
	OutcomeFatal
)

// Classify maps an error to a retry outcome plus an explicit wait hint
// when the platform supplied one. Rate limits and server-side or
// network failures are retryable; rejections, validation problems, and
// cancelled contexts are fatal.
func Classify(err error) (Outcome, time.Duration) {
	if err == nil {
		return OutcomeSuccess, 0
	}

	var re *RemoteError
	if errors.As(err, &re) {
		if re.Status == 429 {
			return OutcomeRetryable, re.RetryAfter
		}
		if re.Status >= 500 {
			return OutcomeRetryable, 0
		}
		return OutcomeFatal, 0
	}

	var rej *RejectionError
	if errors.As(err, &rej) {
		return OutcomeFatal, 0
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFatal, 0
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return OutcomeRetryable, 0
	}

	// Remaining transport errors are worth one more look.
	return OutcomeRetryable, 0
}
