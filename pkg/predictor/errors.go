package predictor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/openai/openai-go"
)

// ErrorKind separates failures that are worth retrying from those that are
// not.
type ErrorKind string

const (
	// KindTransient covers timeouts, rate limits and 5xx responses.
	// Retried with backoff, then degraded to fallback.
	KindTransient ErrorKind = "transient"

	// KindPermanent covers auth failures and malformed responses.
	// Never retried.
	KindPermanent ErrorKind = "permanent"
)

// Error is a classified predictor failure.
type Error struct {
	Predictor string
	Kind      ErrorKind
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s predictor: %s error: %v", e.Predictor, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a predictor error worth retrying.
func IsTransient(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// classifyKind maps an underlying failure to an error kind. Deadline
// expiry, rate limiting, 5xx responses and network faults are transient;
// everything else (auth, bad request, unparseable response) is permanent.
func classifyKind(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransient
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return KindTransient
		}
		return KindPermanent
	}

	return KindPermanent
}

// classifyStatus maps an HTTP status code to an error kind.
func classifyStatus(status int) ErrorKind {
	if status == 429 || status >= 500 {
		return KindTransient
	}
	return KindPermanent
}
