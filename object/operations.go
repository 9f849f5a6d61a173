package object

import (
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/op"
)

// Compare two objects using the given comparison operator. Equality is
// structural and never crosses types. Ordering widens integer/float pairs
// and is a type error for anything else.
func Compare(opType op.CompareOpType, a, b Object) (Object, error) {
	switch opType {
	case op.Equal:
		return NewBool(a.Equals(b)), nil
	case op.NotEqual:
		return NewBool(!a.Equals(b)), nil
	}

	if ai, ok := a.(*Int); ok {
		if bi, ok := b.(*Int); ok {
			return NewBool(compareOrdered(opType, ai.value, bi.value)), nil
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, errz.TypeErrorf("unsupported operand types for %s: %s and %s",
			opType, a.Type(), b.Type())
	}
	return NewBool(compareOrdered(opType, af, bf)), nil
}

func compareOrdered[T int64 | float64](opType op.CompareOpType, a, b T) bool {
	switch opType {
	case op.LessThan:
		return a < b
	case op.LessThanOrEqual:
		return a <= b
	case op.GreaterThan:
		return a > b
	case op.GreaterThanOrEqual:
		return a >= b
	default:
		return false
	}
}

// BinaryOp performs a binary operation on two objects, given an operator.
// Both operands have already been evaluated; And and Or combine their
// truthiness.
func BinaryOp(opType op.BinaryOpType, a, b Object) (Object, error) {
	switch opType {
	case op.And:
		return NewBool(a.IsTruthy() && b.IsTruthy()), nil
	case op.Or:
		return NewBool(a.IsTruthy() || b.IsTruthy()), nil
	case op.Concatenate:
		return Concat(a, b), nil
	}
	return a.RunOperation(opType, b)
}

// Concat joins the display forms of two objects.
func Concat(a, b Object) *String {
	return NewString(a.Inspect() + b.Inspect())
}

func asFloat(obj Object) (float64, bool) {
	switch obj := obj.(type) {
	case *Int:
		return float64(obj.value), true
	case *Float:
		return obj.value, true
	default:
		return 0, false
	}
}

func unsupported(opType op.BinaryOpType, a, b Object) error {
	return errz.TypeErrorf("unsupported operand types for %s: %s and %s",
		opType, a.Type(), b.Type())
}
