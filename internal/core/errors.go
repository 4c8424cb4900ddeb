package core

import (
	"errors"
	"fmt"
)

// API error codes returned in the {"error": CODE} body.
const (
	CodeInvalidBody    = "INVALID_BODY"
	CodeNoFields       = "NO_FIELDS"
	CodeInvalidID      = "INVALID_ID"
	CodeInvalidQuery   = "INVALID_QUERY"
	CodeNotFound       = "NOT_FOUND"
	CodeDBRead         = "DB_READ_FAILED"
	CodeDBWrite        = "DB_WRITE_FAILED"
	CodeDBUpdate       = "DB_UPDATE_FAILED"
	CodeDBDelete       = "DB_DELETE_FAILED"
	CodeDBClear        = "DB_CLEAR_FAILED"
	CodeDBSummary      = "DB_SUMMARY_FAILED"
	CodeRateLimited    = "RATE_LIMITED"
	CodeBusUnavailable = "EVENTS_UNAVAILABLE"
	CodeInternal       = "INTERNAL"
)

// CodedError pairs an underlying error with the API code it surfaces as.
type CodedError struct {
	Code    string
	Message string
	Err     error
}

func (e *CodedError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *CodedError) Unwrap() error { return e.Err }

// WithCode wraps err with an API code.
func WithCode(code string, err error) *CodedError {
	return &CodedError{Code: code, Err: err}
}

// Codef builds a CodedError with a formatted message and no cause.
func Codef(code, format string, args ...any) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the API code from err, or "" if none is attached.
func CodeOf(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
