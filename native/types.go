package native

import (
	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/errz"
)

// Type is the statically inferred type of an expression. Native code has no
// runtime tags, so every expression's type must be known at generation time.
type Type int

const (
	Null Type = iota
	Bool
	Int
	Float
	String
)

// String returns the type name used in error messages. The names match the
// runtime type names of the bytecode VM.
func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Numeric reports whether t is Int or Float.
func (t Type) Numeric() bool {
	return t == Int || t == Float
}

// Capabilities lists what a backend can lower beyond the common subset.
type Capabilities struct {
	// StringConcat enables ".." and "+" on two strings.
	StringConcat bool
}

// BinaryResult returns the static result type of applying the infix
// operator to operands of the given types. Combinations the bytecode VM
// rejects fail with ErrTypeMismatch; combinations the VM accepts but the
// backend cannot lower fail with ErrNotSupported.
func BinaryResult(operator string, left, right Type, caps Capabilities) (Type, error) {
	mismatch := func() (Type, error) {
		return Null, errz.TypeErrorf("unsupported operand types for %s: %s and %s",
			operator, left, right)
	}
	notSupported := func() (Type, error) {
		return Null, errz.NotSupportedf("%s on %s and %s is not supported in native mode",
			operator, left, right)
	}
	numeric := left.Numeric() && right.Numeric()
	widened := Int
	if left == Float || right == Float {
		widened = Float
	}

	switch operator {
	case ast.OpAdd:
		if left == String && right == String {
			if !caps.StringConcat {
				return notSupported()
			}
			return String, nil
		}
		if numeric {
			return widened, nil
		}
		return mismatch()
	case ast.OpSubtract, ast.OpMultiply, ast.OpDivide:
		if numeric {
			return widened, nil
		}
		return mismatch()
	case ast.OpModulo, ast.OpPower:
		if !numeric {
			return mismatch()
		}
		if widened == Float {
			return notSupported()
		}
		return Int, nil
	case ast.OpAnd, ast.OpOr:
		if integral(left) && integral(right) {
			return Bool, nil
		}
		return notSupported()
	case ast.OpConcatenate:
		if caps.StringConcat && left == String && right == String {
			return String, nil
		}
		return notSupported()
	case ast.OpEqual, ast.OpNotEqual:
		return Bool, nil
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEq:
		if numeric {
			return Bool, nil
		}
		return mismatch()
	default:
		return Null, errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"unknown operator: %s", operator)
	}
}

// integral reports whether values of type t live in a general purpose
// register with zero meaning false.
func integral(t Type) bool {
	return t == Int || t == Bool || t == Null
}
