package confession

import (
	"fmt"
	"strings"
)

// Error codes carried by the typed errors below.
const (
	CodeMissingFields     = "missing_fields"
	CodeInvalidField      = "invalid_field"
	CodeInvalidSenderName = "invalid_sender_name"
	CodeInvalidTargetName = "invalid_target_name"
	CodeToxicContent      = "toxic_content"
	CodeMissingPaymentRef = "missing_payment_ref"
	CodeUnverifiedAuthor  = "unverified_author"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidPayment    = "invalid_payment_transition"
	CodeReviewRequired    = "review_required"
	CodeAlreadyPaid       = "already_paid"
	CodeCodeSpace         = "code_space_exhausted"
)

// ValidationError is a user-fixable problem with the request.
type ValidationError struct {
	Code   string
	Reason string
	Fields []string
	Score  float64
}

func (e ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Fields, ", "))
	}
	return e.Reason
}

func (e ValidationError) Is(target error) bool {
	switch target.(type) {
	case ValidationError, *ValidationError:
		return true
	}
	return false
}

// AuthenticationError means the caller could not be verified.
type AuthenticationError struct {
	Code   string
	Reason string
}

func (e AuthenticationError) Error() string { return e.Reason }

func (e AuthenticationError) Is(target error) bool {
	switch target.(type) {
	case AuthenticationError, *AuthenticationError:
		return true
	}
	return false
}

// NotFoundError represents a missing confession or submission.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}

func (e NotFoundError) Is(target error) bool {
	switch target.(type) {
	case NotFoundError, *NotFoundError:
		return true
	}
	return false
}

// ConflictError is a request that is well formed but clashes with current state.
type ConflictError struct {
	Code   string
	Reason string
}

func (e ConflictError) Error() string { return e.Reason }

func (e ConflictError) Is(target error) bool {
	switch target.(type) {
	case ConflictError, *ConflictError:
		return true
	}
	return false
}

// UpstreamError is a failure of an external provider or of storage.
// Its details are for logs only.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

func (e UpstreamError) Is(target error) bool {
	switch target.(type) {
	case UpstreamError, *UpstreamError:
		return true
	}
	return false
}

// Sentinels for errors.Is matching on the error class.
var (
	ErrValidation     = ValidationError{}
	ErrAuthentication = AuthenticationError{}
	ErrNotFound       = NotFoundError{}
	ErrConflict       = ConflictError{}
	ErrUpstream       = UpstreamError{}
)
