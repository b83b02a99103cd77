package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ValidationKind classifies a user-correctable problem in a model.
type ValidationKind string

const (
	KindRequired      ValidationKind = "required"
	KindNotInSet      ValidationKind = "not_in_set"
	KindOutOfRange    ValidationKind = "out_of_range"
	KindMalformed     ValidationKind = "malformed"
	KindDuplicateName ValidationKind = "duplicate_name"
	KindIncompatible  ValidationKind = "incompatible"
	KindCycle         ValidationKind = "cycle"
)

// ValidationError is returned for any graph or value problem the user can fix by editing the model.
type ValidationError struct {
	Kind    ValidationKind
	Subject string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Subject == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Subject, e.Message)
}

func newValidationError(kind ValidationKind, subject, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidation reports whether err, or any error it wraps, is a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// KindOf returns the kind of the first *ValidationError in err's chain, or "" when there is none.
func KindOf(err error) ValidationKind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}

	return ""
}

// InternalError marks a failure in code that was supposed to be pre-validated.
// It is a bug in validation coverage, never a user mistake.
type InternalError struct {
	cause error
}

// NewInternalError wraps cause as a programmer defect.
func NewInternalError(cause error) *InternalError {
	return &InternalError{cause: cause}
}

// Internalf builds a programmer defect from a message.
func Internalf(format string, args ...interface{}) *InternalError {
	return &InternalError{cause: errors.Errorf(format, args...)}
}

func (e *InternalError) Error() string {
	return "internal error: " + e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Cause lets errors.Cause from github.com/pkg/errors walk through.
func (e *InternalError) Cause() error {
	return e.cause
}

// IsInternal reports whether err, or any error it wraps, is an *InternalError.
func IsInternal(err error) bool {
	var ierr *InternalError
	return errors.As(err, &ierr)
}

var (
	ErrNodeNotInModel  = errors.New("node is not part of the model")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownNode     = errors.New("unknown node")
)
