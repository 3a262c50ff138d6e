package models

import (
	"errors"
	"fmt"
)

// ErrorCode names a failure category exposed to callers.
type ErrorCode string

const (
	CodeHealthDataUnavailable ErrorCode = "HealthDataUnavailable"
	CodeInvalidDataType       ErrorCode = "InvalidDataType"
	CodeInvalidDate           ErrorCode = "InvalidDate"
	CodeDataTypeUnavailable   ErrorCode = "DataTypeUnavailable"
	CodeInvalidDateRange      ErrorCode = "InvalidDateRange"
	CodeOperationFailed       ErrorCode = "OperationFailed"
)

// Error is a categorized failure. The wrapped Err, when set, is the
// original cause and stays reachable through errors.Unwrap / errors.As.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewError builds an *Error.
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so the sentinels below work
// with errors.Is regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrHealthDataUnavailable = &Error{Code: CodeHealthDataUnavailable}
	ErrInvalidDataType       = &Error{Code: CodeInvalidDataType}
	ErrInvalidDate           = &Error{Code: CodeInvalidDate}
	ErrDataTypeUnavailable   = &Error{Code: CodeDataTypeUnavailable}
	ErrInvalidDateRange      = &Error{Code: CodeInvalidDateRange}
	ErrOperationFailed       = &Error{Code: CodeOperationFailed}
)

// CodeOf returns the taxonomy code of err, or OperationFailed for
// uncategorized errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeOperationFailed
}
