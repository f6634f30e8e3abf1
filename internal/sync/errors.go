package sync

import "fmt"

// Machine-readable error codes surfaced on the wire alongside the public
// error message.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeConflictDetected = "CONFLICT_DETECTED"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeSyncFailed       = "SYNC_FAILED"
)

// Error is the engine's public error type. Message is safe to return to
// clients; the wrapped cause is for logs only and never crosses the wire.
type Error struct {
	Code    string
	Message string

	// Conflict detail, populated for CodeConflictDetected so the caller
	// can decide how to retry.
	ServerVersion     int64
	ConflictTimestamp int64

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func validationError(format string, args ...any) *Error {
	return &Error{Code: CodeValidationFailed, Message: fmt.Sprintf(format, args...)}
}

func conflictError(serverVersion, lastModified int64) *Error {
	return &Error{
		Code:              CodeConflictDetected,
		Message:           "settings conflict detected: server version is newer",
		ServerVersion:     serverVersion,
		ConflictTimestamp: lastModified,
	}
}

func unauthenticatedError() *Error {
	return &Error{Code: CodeUnauthenticated, Message: "authentication required"}
}

func storageError(op string, cause error) *Error {
	return &Error{Code: CodeSyncFailed, Message: "sync operation failed", cause: fmt.Errorf("%s: %w", op, cause)}
}
