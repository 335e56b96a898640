package typesense

import "fmt"

type OperationErrorCode string

const (
	OperationErrorValidation      OperationErrorCode = "validation_failed"
	OperationErrorEncodeFailed    OperationErrorCode = "encode_failed"
	OperationErrorDecodeFailed    OperationErrorCode = "decode_failed"
	OperationErrorTransportFailed OperationErrorCode = "transport_failed"
	OperationErrorTimeout         OperationErrorCode = "timeout"
	OperationErrorRequestFailed   OperationErrorCode = "request_failed"
	OperationErrorImportRejected  OperationErrorCode = "import_rejected"
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
		return "typesense operation failed"
	}
	if e.Message != "" {
		return fmt.Sprintf(
			"typesense operation failed (op=%s code=%s status=%d): %s",
			e.Operation, e.Code, e.StatusCode, e.Message,
		)
	}
	if e.Cause != nil {
		return fmt.Sprintf(
			"typesense operation failed (op=%s code=%s status=%d): %v",
			e.Operation, e.Code, e.StatusCode, e.Cause,
		)
	}
	return fmt.Sprintf(
		"typesense operation failed (op=%s code=%s status=%d)",
		e.Operation, e.Code, e.StatusCode,
	)
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Retryable reports whether the failure is transient: transport errors,
// timeouts, 429s and 5xx responses. Validation and import rejections are
// permanent for the same payload.
func (e *OperationError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case OperationErrorTransportFailed, OperationErrorTimeout:
		return true
	case OperationErrorRequestFailed:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

func opErr(op string, code OperationErrorCode, msg string, cause error) error {
	return &OperationError{
		Code:      code,
		Operation: op,
		Message:   msg,
		Cause:     cause,
	}
}
