package restaurants

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeNotAMention         ErrorCode = "not_a_mention"
	CodeMissingData         ErrorCode = "missing_data"
	CodePersistenceConflict ErrorCode = "persistence_conflict"
	CodeEnrichmentFailure   ErrorCode = "enrichment_failure"
	CodeNotFound            ErrorCode = "not_found"
	CodeValidation          ErrorCode = "validation"
	CodeInternal            ErrorCode = "internal"
)

// Error is the coded failure type of the extraction and merge core.
type Error struct {
	Code    ErrorCode
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
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message), Cause: cause}
}

func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}

func CodeOf(err error) ErrorCode {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}
