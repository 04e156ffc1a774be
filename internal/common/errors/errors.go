// Package errors provides standardized error handling for report generation.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnsupportedValueKind ErrorCode = "UNSUPPORTED_VALUE_KIND"
	ErrCodeEntityPayloadInvalid ErrorCode = "ENTITY_PAYLOAD_INVALID"

	ErrCodeDatasetColumnMissing ErrorCode = "DATASET_COLUMN_MISSING"
	ErrCodeDatasetReadFailed    ErrorCode = "DATASET_READ_FAILED"
	ErrCodeDatasetEmptyJoin     ErrorCode = "DATASET_EMPTY_JOIN"

	ErrCodeConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrCodeIntentGroupsFailed ErrorCode = "INTENT_GROUPS_FAILED"

	ErrCodeDumpWriteFailed ErrorCode = "DUMP_WRITE_FAILED"
	ErrCodeSinkUnavailable ErrorCode = "SINK_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewUnsupportedValueKindError signals an upstream data contract violation:
// a value record whose kind is outside {value, interval, categorical}.
// This must not be swallowed into a wrong statistic.
func NewUnsupportedValueKindError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedValueKind,
		Message:   "Unsupported entity value kind",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEntityPayloadInvalidError creates a non-retryable payload contract error.
func NewEntityPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEntityPayloadInvalid,
		Message:   "Entity payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetColumnMissingError creates a non-retryable dataset shape error.
func NewDatasetColumnMissingError(column, path string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetColumnMissing,
		Message:   "Required column missing from label table",
		Details:   fmt.Sprintf("column: %s, file: %s", column, path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetReadFailedError creates a retryable read error.
func NewDatasetReadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetReadFailed,
		Message:   "Failed to read label table",
		Details:   fmt.Sprintf("file: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatasetEmptyJoinError signals that truth and prediction tables share
// no identifiers, so no report can be produced.
func NewDatasetEmptyJoinError(idColumn string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatasetEmptyJoin,
		Message:   "Join of truth and prediction tables is empty",
		Details:   fmt.Sprintf("id column: %s", idColumn),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigInvalidError creates a non-retryable configuration error.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentGroupsFailedError creates a non-retryable intent-group config error.
func NewIntentGroupsFailedError(path string, err error) *StandardError {
	detail := "no groups defined"
	if err != nil {
		detail = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeIntentGroupsFailed,
		Message:   "Failed to load intent groups",
		Details:   fmt.Sprintf("file: %s, error: %s", path, detail),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDumpWriteFailedError creates a retryable dump sink error.
func NewDumpWriteFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDumpWriteFailed,
		Message:   "Failed to write error dump",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSinkUnavailableError creates a retryable sink connection error.
func NewSinkUnavailableError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSinkUnavailable,
		Message:   "Dump sink unavailable",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
