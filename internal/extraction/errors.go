package extraction

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by classification and orchestration.
var (
	// ErrInvalidBuffer indicates an empty or nil document buffer. Fatal,
	// surfaced immediately, never retried.
	ErrInvalidBuffer = errors.New("invalid document buffer: empty or nil")

	// ErrEncryptedDocument indicates the inspection pass detected an
	// encrypted document. No backend can be expected to succeed, so
	// orchestration short-circuits straight to the fallback extractor.
	ErrEncryptedDocument = errors.New("document is encrypted")

	// ErrCancelled tags a result whose extraction was interrupted by the
	// caller's cancellation signal between orchestration steps.
	ErrCancelled = errors.New("extraction cancelled")
)

// BackendError is a typed failure raised by an extraction backend. The
// orchestrator classifies it as transient (eligible for the retry budget)
// or permanent (advances the fallback chain).
type BackendError struct {
	Backend   Method
	Op        string
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s backend %s failure during %s: %v", e.Backend, kind, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a network/service hiccup that is worth retrying.
func NewTransientError(backend Method, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Transient: true, Err: err}
}

// NewPermanentError wraps a failure the backend cannot recover from.
func NewPermanentError(backend Method, op string, err error) *BackendError {
	return &BackendError{Backend: backend, Op: op, Transient: false, Err: err}
}

// IsTransient reports whether an error is a retryable backend failure.
func IsTransient(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Transient
}
