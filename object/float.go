package object

import (
	"math"
	"strconv"

	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/op"
)

// Float wraps float64.
type Float struct {
	value float64
}

func NewFloat(value float64) *Float {
	return &Float{value: value}
}

func (f *Float) Type() Type {
	return FLOAT
}

func (f *Float) Value() float64 {
	return f.value
}

// Inspect formats the float as the shortest decimal that round-trips,
// without an exponent.
func (f *Float) Inspect() string {
	switch {
	case math.IsInf(f.value, 1):
		return "inf"
	case math.IsInf(f.value, -1):
		return "-inf"
	case math.IsNaN(f.value):
		return "NaN"
	}
	return strconv.FormatFloat(f.value, 'f', -1, 64)
}

func (f *Float) String() string {
	return f.Inspect()
}

func (f *Float) Interface() interface{} {
	return f.value
}

func (f *Float) Equals(other Object) bool {
	otherFloat, ok := other.(*Float)
	return ok && f.value == otherFloat.value
}

func (f *Float) IsTruthy() bool {
	return f.value != 0
}

func (f *Float) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Float:
		return f.runOperationFloat(opType, right.value)
	case *Int:
		return f.runOperationFloat(opType, float64(right.value))
	default:
		return nil, unsupported(opType, f, right)
	}
}

func (f *Float) runOperationFloat(opType op.BinaryOpType, right float64) (Object, error) {
	switch opType {
	case op.Add:
		return NewFloat(f.value + right), nil
	case op.Subtract:
		return NewFloat(f.value - right), nil
	case op.Multiply:
		return NewFloat(f.value * right), nil
	case op.Divide:
		if right == 0 {
			return nil, errz.New(errz.ErrValue, errz.ErrDivisionByZero, "division by zero")
		}
		return NewFloat(f.value / right), nil
	case op.Modulo:
		if right == 0 {
			return nil, errz.New(errz.ErrValue, errz.ErrModuloByZero, "modulo by zero")
		}
		return NewFloat(math.Mod(f.value, right)), nil
	case op.Power:
		return NewFloat(math.Pow(f.value, right)), nil
	default:
		return nil, unsupported(opType, f, NewFloat(right))
	}
}
