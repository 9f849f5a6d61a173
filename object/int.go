package object

import (
	"math"
	"strconv"

	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/op"
)

// Int wraps int64. Arithmetic wraps around on overflow.
type Int struct {
	value int64
}

func NewInt(value int64) *Int {
	return &Int{value: value}
}

func (i *Int) Type() Type {
	return INT
}

func (i *Int) Value() int64 {
	return i.value
}

func (i *Int) Inspect() string {
	return strconv.FormatInt(i.value, 10)
}

func (i *Int) String() string {
	return i.Inspect()
}

func (i *Int) Interface() interface{} {
	return i.value
}

func (i *Int) Equals(other Object) bool {
	otherInt, ok := other.(*Int)
	return ok && i.value == otherInt.value
}

func (i *Int) IsTruthy() bool {
	return i.value != 0
}

func (i *Int) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	switch right := right.(type) {
	case *Int:
		return i.runOperationInt(opType, right.value)
	case *Float:
		return NewFloat(float64(i.value)).runOperationFloat(opType, right.value)
	default:
		return nil, unsupported(opType, i, right)
	}
}

func (i *Int) runOperationInt(opType op.BinaryOpType, right int64) (Object, error) {
	switch opType {
	case op.Add:
		return NewInt(i.value + right), nil
	case op.Subtract:
		return NewInt(i.value - right), nil
	case op.Multiply:
		return NewInt(i.value * right), nil
	case op.Divide:
		if right == 0 {
			return nil, errz.New(errz.ErrValue, errz.ErrDivisionByZero, "division by zero")
		}
		return NewInt(i.value / right), nil
	case op.Modulo:
		if right == 0 {
			return nil, errz.New(errz.ErrValue, errz.ErrModuloByZero, "modulo by zero")
		}
		return NewInt(i.value % right), nil
	case op.Power:
		if right < 0 {
			return NewFloat(math.Pow(float64(i.value), float64(right))), nil
		}
		return NewInt(intPow(i.value, uint32(right))), nil
	default:
		return nil, unsupported(opType, i, NewInt(right))
	}
}

// intPow raises base to exp by repeated squaring, wrapping on overflow.
func intPow(base int64, exp uint32) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
