// Package errors provides standardized error types for planscribe.
package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeDecode         = "DECODE_ERROR"
	CodeMalformedNode  = "MALFORMED_NODE"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeSourceFailed   = "SOURCE_FAILED"
	CodeSinkFailed     = "SINK_FAILED"
	CodeCanceled       = "CANCELED"
	CodeInternal       = "INTERNAL_ERROR"
)

// PlanError is a coded error with a message and optional details.
type PlanError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *PlanError) Unwrap() error {
	return e.Cause
}

// Is matches any PlanError with the same code.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails replaces the error details.
func (e *PlanError) WithDetails(details map[string]interface{}) *PlanError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *PlanError) WithDetail(key string, value interface{}) *PlanError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Sentinels for errors.Is comparisons. Never attach details to these.
var (
	ErrDecode         = &PlanError{Code: CodeDecode, Message: "document is not valid structured data"}
	ErrMalformedNode  = &PlanError{Code: CodeMalformedNode, Message: "plan node is missing its operator type"}
	ErrInvalidRequest = &PlanError{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrNotFound       = &PlanError{Code: CodeNotFound, Message: "not found"}
)

// New creates a new PlanError with the given code and message.
func New(code, message string) *PlanError {
	return &PlanError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new PlanError with a formatted message.
func Newf(code, format string, args ...interface{}) *PlanError {
	return &PlanError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a PlanError.
func Wrap(err error, code, message string) *PlanError {
	if err == nil {
		return nil
	}
	return &PlanError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code, format string, args ...interface{}) *PlanError {
	if err == nil {
		return nil
	}
	return &PlanError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsDecode checks if an error is a decode error.
func IsDecode(err error) bool {
	return hasCode(err, CodeDecode)
}

// IsMalformedNode checks if an error is a malformed node error.
func IsMalformedNode(err error) bool {
	return hasCode(err, CodeMalformedNode)
}

// IsInvalidRequest checks if an error is an invalid request error.
func IsInvalidRequest(err error) bool {
	return hasCode(err, CodeInvalidRequest)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsClientError reports whether the error was caused by the supplied input.
func IsClientError(err error) bool {
	switch GetCode(err) {
	case CodeDecode, CodeMalformedNode, CodeInvalidRequest, CodeNotFound:
		return true
	}
	return false
}

func hasCode(err error, code string) bool {
	var planErr *PlanError
	if errors.As(err, &planErr) {
		return planErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error.
func GetCode(err error) string {
	var planErr *PlanError
	if errors.As(err, &planErr) {
		return planErr.Code
	}
	return CodeInternal
}

// GetMessage extracts the error message from an error.
func GetMessage(err error) string {
	var planErr *PlanError
	if errors.As(err, &planErr) {
		return planErr.Message
	}
	return err.Error()
}
