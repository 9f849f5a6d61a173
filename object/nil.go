package object

import (
	"github.com/Cappucina/ADAN/op"
)

type NilType struct{}

// Nil is the single null value.
var Nil = &NilType{}

func (n *NilType) Type() Type {
	return NIL
}

func (n *NilType) Inspect() string {
	return "null"
}

func (n *NilType) String() string {
	return n.Inspect()
}

func (n *NilType) Interface() interface{} {
	return nil
}

func (n *NilType) Equals(other Object) bool {
	_, ok := other.(*NilType)
	return ok
}

func (n *NilType) IsTruthy() bool {
	return false
}

func (n *NilType) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(opType, n, right)
}
