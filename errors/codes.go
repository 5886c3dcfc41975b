package errors

// ErrorCode is the machine-readable kind of an AppError.
type ErrorCode string

const (
	// Backend availability. Retryable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeExternalService    ErrorCode = "EXTERNAL_SERVICE_ERROR"

	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
)

// Run outcomes. Only ErrCodeModelLoad aborts; the stage that produced the
// others drops the unit, treats the lookup as a miss, or returns no segments.
const (
	ErrCodeModelLoad     ErrorCode = "MODEL_LOAD_FAILED"
	ErrCodeUnitEmbedding ErrorCode = "UNIT_EMBEDDING_FAILED"
	ErrCodeCacheRead     ErrorCode = "CACHE_READ_FAILED"
	ErrCodeEmptyInput    ErrorCode = "EMPTY_INPUT"
)

// IsFatalCode reports whether an error with this code must abort a run.
func IsFatalCode(code ErrorCode) bool {
	switch code {
	case ErrCodeModelLoad, ErrCodeInvalidInput, ErrCodeMissingField, ErrCodeInternal:
		return true
	}
	return false
}
