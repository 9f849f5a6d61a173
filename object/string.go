package object

import (
	"github.com/Cappucina/ADAN/op"
)

type String struct {
	value string
}

func NewString(s string) *String {
	return &String{value: s}
}

func (s *String) Type() Type {
	return STRING
}

func (s *String) Value() string {
	return s.value
}

func (s *String) Inspect() string {
	return s.value
}

func (s *String) String() string {
	return s.value
}

func (s *String) Interface() interface{} {
	return s.value
}

func (s *String) Equals(other Object) bool {
	otherStr, ok := other.(*String)
	return ok && s.value == otherStr.value
}

func (s *String) IsTruthy() bool {
	return s.value != ""
}

func (s *String) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	if opType == op.Add {
		if right, ok := right.(*String); ok {
			return NewString(s.value + right.value), nil
		}
	}
	return nil, unsupported(opType, s, right)
}
