package entity

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("job not found")
	ErrDuplicateID = errors.New("duplicate job id")
	ErrTerminal    = errors.New("job already finished")

	ErrNotReady        = errors.New("download not completed")
	ErrFileMissing     = errors.New("file not found")
	ErrShuttingDown    = errors.New("server is shutting down")
	ErrHistoryDisabled = errors.New("history is not configured")
)

// ValidationError describes a rejected request field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// EngineError wraps a failure reported by the external media engine.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }
