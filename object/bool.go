package object

import (
	"github.com/Cappucina/ADAN/op"
)

type Bool struct {
	value bool
}

var (
	True  = &Bool{value: true}
	False = &Bool{value: false}
)

// NewBool returns the shared True or False object.
func NewBool(value bool) *Bool {
	if value {
		return True
	}
	return False
}

func (b *Bool) Type() Type {
	return BOOL
}

func (b *Bool) Value() bool {
	return b.value
}

func (b *Bool) Inspect() string {
	if b.value {
		return "true"
	}
	return "false"
}

func (b *Bool) String() string {
	return b.Inspect()
}

func (b *Bool) Interface() interface{} {
	return b.value
}

func (b *Bool) Equals(other Object) bool {
	otherBool, ok := other.(*Bool)
	return ok && b.value == otherBool.value
}

func (b *Bool) IsTruthy() bool {
	return b.value
}

func (b *Bool) RunOperation(opType op.BinaryOpType, right Object) (Object, error) {
	return nil, unsupported(opType, b, right)
}
