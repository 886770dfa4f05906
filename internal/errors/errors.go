// Package errors provides structured error types for the taskline service.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNotFound           = errors.New("task not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrTimerRunning       = errors.New("timer already running")
	ErrNoActiveTimer      = errors.New("no active timer")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrInvalidReviewState = errors.New("task is not in a reviewable state")
	ErrAlreadyReviewed    = errors.New("task has already been reviewed")
	ErrStorageConflict    = errors.New("task exists in both storage shapes")
	ErrUnavailable        = errors.New("service unavailable")
	ErrRateLimit          = errors.New("rate limit exceeded")
)

// DeliveryError represents a failure delivering a notification to an
// external sink (e.g. Slack). It never taints the primary operation.
type DeliveryError struct {
	Sink        string
	RecipientID string
	StatusCode  int
	Err         error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s delivery to %s failed (status %d): %v", e.Sink, e.RecipientID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s delivery to %s failed (status %d)", e.Sink, e.RecipientID, e.StatusCode)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// NewDeliveryError creates a delivery error for a notification sink.
func NewDeliveryError(sink, recipientID string, statusCode int, err error) *DeliveryError {
	return &DeliveryError{Sink: sink, RecipientID: recipientID, StatusCode: statusCode, Err: err}
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var de *DeliveryError
	if errors.As(err, &de) {
		switch de.StatusCode {
		case 0, 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrUnavailable)
}
