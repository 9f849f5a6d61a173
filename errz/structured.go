// Package errz defines the structured errors reported by the ADAN compiler,
// virtual machine and native code generators.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrCompile indicates an expression tree the compiler cannot handle.
	ErrCompile ErrorKind = iota
	// ErrType indicates a type mismatch or invalid operation on a type.
	ErrType
	// ErrName indicates an undefined variable or function.
	ErrName
	// ErrValue indicates an invalid value for an operation.
	ErrValue
	// ErrRuntime indicates a general runtime error.
	ErrRuntime
	// ErrUnsupported indicates an operation a native backend cannot lower.
	ErrUnsupported
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrCompile:
		return "compile error"
	case ErrType:
		return "type error"
	case ErrName:
		return "name error"
	case ErrValue:
		return "value error"
	case ErrRuntime:
		return "runtime error"
	case ErrUnsupported:
		return "unsupported"
	default:
		return "error"
	}
}

// Sentinel causes. Every StructuredError produced by this module wraps one of
// these, so callers can branch with errors.Is.
var (
	ErrUnsupportedExpression = errors.New("unsupported expression")
	ErrInvalidAssignment     = errors.New("invalid assignment target")
	ErrUnknownFunction       = errors.New("unknown function")
	ErrUndefinedVariable     = errors.New("undefined variable")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrDivisionByZero        = errors.New("division by zero")
	ErrModuloByZero          = errors.New("modulo by zero")
	ErrStackUnderflow        = errors.New("stack underflow")
	ErrNotSupported          = errors.New("not supported in native mode")
	ErrSlotCollision         = errors.New("variable slot collision")
)

// StructuredError is an error with a category, a message and an optional
// underlying cause.
type StructuredError struct {
	Message string
	Kind    ErrorKind
	Cause   error
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError of the given kind wrapping cause.
func New(kind ErrorKind, cause error, format string, args ...any) *StructuredError {
	return &StructuredError{
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
		Cause:   cause,
	}
}

// CompileErrorf reports an expression tree that cannot be compiled.
func CompileErrorf(cause error, format string, args ...any) *StructuredError {
	return New(ErrCompile, cause, format, args...)
}

// TypeErrorf reports an operator applied to operands of the wrong types.
func TypeErrorf(format string, args ...any) *StructuredError {
	return New(ErrType, ErrTypeMismatch, format, args...)
}

// NotSupportedf reports an operation a native backend cannot lower.
func NotSupportedf(format string, args ...any) *StructuredError {
	return New(ErrUnsupported, ErrNotSupported, format, args...)
}

// KindOf returns the kind of the first StructuredError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *StructuredError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
