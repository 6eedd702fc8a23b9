package learningpath

import (
	"errors"
	"fmt"
	"strings"
)

// Class decides how a failure is surfaced and whether it may be retried.
type Class string

const (
	ClassValidation        Class = "validation"
	ClassTransient         Class = "transient"
	ClassContractViolation Class = "contract_violation"
	ClassPersistence       Class = "persistence"
	ClassInternal          Class = "internal"
)

// Kind names the specific failure inside a class.
type Kind string

const (
	KindInvalidRequest            Kind = "invalid_request"
	KindInsufficientResults       Kind = "insufficient_results"
	KindDegenerateEmbedding       Kind = "degenerate_embedding"
	KindUnrecognizedResponseShape Kind = "unrecognized_response_shape"
	KindMalformedPlanOutput       Kind = "malformed_plan_output"
	KindIncompletePlan            Kind = "incomplete_plan"
	KindUnknownCourseReference    Kind = "unknown_course_reference"
	KindInvalidLane               Kind = "invalid_lane"
	KindInvalidOrder              Kind = "invalid_order"
	KindInsufficientJustification Kind = "insufficient_justification"
	KindDanglingCourseReference   Kind = "dangling_course_reference"
	KindProviderUnavailable       Kind = "provider_unavailable"
	KindProviderFailed            Kind = "provider_failed"
	KindPersistenceFailed         Kind = "persistence_failed"
)

type Error struct {
	Class   Class
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(class Class, kind Kind, op, message string, cause error) *Error {
	return &Error{
		Class:   class,
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func Validation(kind Kind, op, format string, args ...any) *Error {
	return NewError(ClassValidation, kind, op, fmt.Sprintf(format, args...), nil)
}

func Contract(kind Kind, op, format string, args ...any) *Error {
	return NewError(ClassContractViolation, kind, op, fmt.Sprintf(format, args...), nil)
}

// Transient tags cause as a retryable provider failure.
func Transient(op string, cause error) *Error {
	return NewError(ClassTransient, KindProviderFailed, op, "", cause)
}

// Internal tags cause as a non-retryable service failure.
func Internal(kind Kind, op string, cause error) *Error {
	return NewError(ClassInternal, kind, op, "", cause)
}

func ClassOf(err error) Class {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Class
}

func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

func IsClass(err error, class Class) bool {
	return ClassOf(err) == class
}

// IsTransient reports whether err was classified as retryable.
func IsTransient(err error) bool {
	return IsClass(err, ClassTransient)
}

// PublicMessage is the text safe to return to callers: validation messages are
// passed through, everything else is generic.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Class == ClassValidation {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			return msg
		}
	}
	return "internal server error"
}
