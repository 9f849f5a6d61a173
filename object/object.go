// Package object defines the runtime values manipulated by the ADAN virtual
// machine: null, booleans, integers, floats and strings.
package object

import (
	"github.com/Cappucina/ADAN/op"
)

// Type of an object as a string.
type Type string

// Type constants
const (
	NIL    Type = "null"
	BOOL   Type = "bool"
	INT    Type = "int"
	FLOAT  Type = "float"
	STRING Type = "string"
)

// Object is the interface that all values in the virtual machine implement.
// The set of implementations is closed: *NilType, *Bool, *Int, *Float and
// *String. Objects are immutable once constructed.
type Object interface {
	// Type of the object.
	Type() Type

	// Inspect returns the display form of the object, as printed by io.print.
	Inspect() string

	// Interface converts the given object to a native Go value.
	Interface() interface{}

	// Returns true if the given object is equal to this object. Objects of
	// different types are never equal.
	Equals(other Object) bool

	// IsTruthy returns true if the object is considered "truthy".
	IsTruthy() bool

	// RunOperation runs an operation on this object with the given
	// right-hand side object.
	RunOperation(opType op.BinaryOpType, right Object) (Object, error)
}
