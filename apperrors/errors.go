package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies calculation failures.
// Parse and Validation errors are user-facing and carry row context so a
// whole file's problems surface in one pass. Computation errors are bugs:
// they are reported generically and logged with full context server-side.
type Kind int

const (
	KindParse Kind = iota
	KindValidation
	KindComputation
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindValidation:
		return "validation"
	case KindComputation:
		return "computation"
	}
	return "unknown"
}

// The message shown for any computation failure. Internal state never leaks
// to the caller.
const ComputationFailedMessage = "calculation failed, please contact support"

var (
	// ErrNoValidTransactions is terminal: an upload with zero parsable rows
	// never yields a report.
	ErrNoValidTransactions = errors.New("file contains no valid transactions")

	// ErrOversell indicates a disposal larger than the position held.
	ErrOversell = errors.New("cannot dispose more than held")
)

// RowError is a single user-facing problem, optionally tied to a 1-based
// source row. Row 0 means the error applies to the whole input.
type RowError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Row     int    `json:"rowIndex,omitempty"`
}

func (e RowError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

func Parsef(row int, format string, v ...interface{}) RowError {
	return RowError{Kind: KindParse, Row: row, Message: fmt.Sprintf(format, v...)}
}

func Validationf(row int, format string, v ...interface{}) RowError {
	return RowError{Kind: KindValidation, Row: row, Message: fmt.Sprintf(format, v...)}
}

func Computation() RowError {
	return RowError{Kind: KindComputation, Message: ComputationFailedMessage}
}

// ErrorList collects row errors across pipeline stages.
type ErrorList struct {
	Errors []RowError `json:"errors"`
}

func (l *ErrorList) Add(errs ...RowError) {
	l.Errors = append(l.Errors, errs...)
}

func (l *ErrorList) Empty() bool {
	return len(l.Errors) == 0
}

// HasComputation reports whether any collected error is an internal failure.
func (l *ErrorList) HasComputation() bool {
	for _, e := range l.Errors {
		if e.Kind == KindComputation {
			return true
		}
	}
	return false
}

func (l *ErrorList) Error() string {
	msgs := make([]string, 0, len(l.Errors))
	for _, e := range l.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
