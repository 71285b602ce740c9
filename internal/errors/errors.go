// Package errors defines the structured error taxonomy for the GL
// processing pipeline. Format errors are fatal per file, never for the
// run: a batch combining failed and succeeded files attributes each
// failure to the right file. Row-level defects are not errors at all;
// they are absorbed into ingestion statistics.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for pipeline failures.
const (
	CodeFileRead           = "FILE_READ"
	CodeUnrecognizedFormat = "UNRECOGNIZED_FORMAT"
	CodeMissingColumns     = "MISSING_COLUMNS"
	CodeNoData             = "NO_DATA"
	CodeExportFailed       = "EXPORT_FAILED"
	CodeValidationBlocked  = "VALIDATION_BLOCKED"
)

// PipelineError is a structured, coded error. File is set when the
// error is scoped to one input file.
type PipelineError struct {
	Code    string
	Message string
	File    string
	Err     error
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = fmt.Sprintf("%s: %s", e.File, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the wrapped cause for errors.Is/As.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New creates a new PipelineError with the given code and message.
func New(code, message string) *PipelineError {
	return &PipelineError{Code: code, Message: message}
}

// NewFileError creates a file-scoped PipelineError wrapping a cause.
func NewFileError(code, file, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, File: file, Err: err}
}

// Code extracts the error code from err, or "" when err is not a
// PipelineError.
func Code(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsCode reports whether err carries the given pipeline error code.
func IsCode(err error, code string) bool {
	return Code(err) == code
}

// Predefined errors for common pipeline failures.
var (
	// ErrUnrecognizedFormat is returned by the format detector when the
	// input matches neither known dialect.
	ErrUnrecognizedFormat = New(CodeUnrecognizedFormat, "spreadsheet format not recognized")

	// ErrNoData is returned when a sheet contains no rows at all.
	ErrNoData = New(CodeNoData, "sheet contains no rows")

	// ErrValidationBlocked is returned when artifact generation is
	// requested for a run whose validation verdict is false.
	ErrValidationBlocked = New(CodeValidationBlocked, "validation failed; databook generation withheld")
)

// MissingColumns creates a file-scoped error naming the column families
// that could not be located even after synonym matching.
func MissingColumns(file string, families ...string) *PipelineError {
	return &PipelineError{
		Code:    CodeMissingColumns,
		Message: fmt.Sprintf("required column(s) not found: %v", families),
		File:    file,
	}
}
