package qdrant

import (
	"fmt"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/httpx"
)

type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorQueryFailed     OperationErrorCode = "query_failed"
)

type OperationError struct {
	Code       OperationErrorCode
	Operation  string
	StatusCode int
	Message    string
	Cause      error
}

func (e *OperationError) Error() string {
	if e == nil {
		return "qdrant operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d): %s", e.Operation, e.Code, e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d): %v", e.Operation, e.Code, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("qdrant operation failed (op=%s code=%s status=%d)", e.Operation, e.Code, e.StatusCode)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports whether the failure was a timeout, a transport error, or
// an upstream status worth retrying.
func (e *OperationError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case OperationErrorTimeout, OperationErrorTransportFailed:
		return true
	case OperationErrorQueryFailed:
		return httpx.IsRetryableHTTPStatus(e.StatusCode)
	default:
		return false
	}
}

func opErr(op string, code OperationErrorCode, msg string, cause error) *OperationError {
	return &OperationError{Code: code, Operation: op, Message: msg, Cause: cause}
}

// classify lifts an OperationError into the pipeline taxonomy.
func classify(e *OperationError) error {
	if e == nil {
		return nil
	}
	op := "qdrant." + e.Operation
	if e.Retryable() {
		return learningpath.Transient(op, e)
	}
	return learningpath.Internal(learningpath.KindProviderFailed, op, e)
}
