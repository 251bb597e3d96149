package service

import "errors"

var (
	// ErrInvalidInput marks malformed ids or bodies
	ErrInvalidInput = errors.New("invalid input")
	// ErrSubmitInProgress is returned while another submit for the same customer holds the lock
	ErrSubmitInProgress = errors.New("order submission already in progress")
	// ErrInvalidOTP covers wrong, expired and exhausted login codes
	ErrInvalidOTP = errors.New("invalid or expired code")
	// ErrForbidden means the caller is authenticated but not associated with the venue
	ErrForbidden = errors.New("forbidden")
)

// InputError is a validation failure whose Reason is safe to show callers.
// It matches ErrInvalidInput under errors.Is.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return e.Reason + ": " + ErrInvalidInput.Error()
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid returns an InputError for reason
func Invalid(reason string) error {
	return &InputError{Reason: reason}
}
