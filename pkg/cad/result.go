package cad

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal failures.
type ErrorKind string

const (
	ErrorKindUnsupportedFormat ErrorKind = "unsupported_format"
	ErrorKindReadFailure       ErrorKind = "read_failure"
)

var (
	// ErrUnsupportedFormat marks inputs whose extension is not .dwg.
	ErrUnsupportedFormat = errors.New("cad: unsupported format")
	// ErrReadFailure marks inputs whose bytes could not be read.
	ErrReadFailure = errors.New("cad: read failure")
)

// Failure is the serialisable form of a fatal error. It satisfies error and
// matches the package sentinels through errors.Is.
type Failure struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	cause   error
}

// NewFailure builds a failure of the given kind wrapping cause.
func NewFailure(kind ErrorKind, cause error, format string, args ...any) *Failure {
	return &Failure{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap exposes the underlying cause, if any.
func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.cause
}

// Is matches the sentinel that corresponds to the failure kind.
func (f *Failure) Is(target error) bool {
	if f == nil {
		return false
	}
	switch f.Kind {
	case ErrorKindUnsupportedFormat:
		return target == ErrUnsupportedFormat
	case ErrorKindReadFailure:
		return target == ErrReadFailure
	default:
		return false
	}
}

// LayerSelectionResult is returned by the survey pass. On failure Layers is
// nil and Error is set; a successful survey always carries a non-nil Layers; a degraded survey keeps Success and fills Warnings.
type LayerSelectionResult struct {
	Success  bool        `json:"success"`
	Layers   []LayerInfo `json:"layers"`
	Warnings []string    `json:"warnings,omitempty"`
	Error    *Failure    `json:"error,omitempty"`
}

// Degraded reports whether the survey succeeded with warnings.
func (r LayerSelectionResult) Degraded() bool {
	return r.Success && len(r.Warnings) > 0
}

// ParseResult is returned by the filtered parse. On failure Data is nil and
// Error is set; a degraded parse keeps Success and fills Warnings.
type ParseResult struct {
	Success  bool     `json:"success"`
	Data     *Data    `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
	Error    *Failure `json:"error,omitempty"`
}

// Degraded reports whether the parse succeeded with warnings.
func (r ParseResult) Degraded() bool {
	return r.Success && len(r.Warnings) > 0
}

// FailedSurvey builds a fatal survey result.
func FailedSurvey(failure *Failure) LayerSelectionResult {
	return LayerSelectionResult{Success: false, Error: failure}
}

// FailedParse builds a fatal parse result.
func FailedParse(failure *Failure) ParseResult {
	return ParseResult{Success: false, Error: failure}
}
