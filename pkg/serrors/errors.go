// Package serrors provides structured error handling for Seriate with
// error categorization, key-value context, and cause preservation.
//
// The user-visible failures of the series builder are represented here:
// a protected builder that receives an incompatible write reports
// ErrorTypeTypeMismatch, a failed coercion into a protected target
// reports ErrorTypeCastFailure, and an enumeration value written into
// an unprotected builder reports ErrorTypeEnumeration. Everything else
// a builder could get wrong is an internal invariant and panics instead
// of being reported.
//
// Basic usage:
//
//	err := serrors.New(serrors.ErrorTypeCastFailure, "cannot cast to duration").
//	    WithDetail("value", raw).
//	    WithDetail("unit", unit)
package serrors

import (
	"errors"
	"fmt"

	stringpool "github.com/seriate-io/seriate/pkg/strings"
)

// ErrorType categorizes an error for handling strategies, monitoring,
// and API mapping.
type ErrorType string

const (
	// ErrorTypeTypeMismatch reports a write into a protected builder whose
	// kind is incompatible with the declared type.
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeCastFailure reports a value that could not be coerced into
	// a protected target type.
	ErrorTypeCastFailure ErrorType = "cast_failure"
	// ErrorTypeEnumeration reports an enumeration value written into an
	// unprotected builder, which cannot infer a label set.
	ErrorTypeEnumeration ErrorType = "enumeration"
	// ErrorTypeValidation represents validation errors.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors.
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeData represents data processing errors.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeInternal represents internal system errors.
	ErrorTypeInternal ErrorType = "internal"
)

// Error is a structured error with a category, message, optional
// key-value details, and an optional cause.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As
// over the chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. It can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a category and message, preserving
// the original as the cause. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Type: errType, Message: message, Cause: err}
}

// IsType reports whether err (or anything in its chain) is a structured
// error of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the category of err, or ErrorTypeInternal if err is
// not a structured error.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}
