package object

import (
	"github.com/Cappucina/ADAN/errz"
)

// *****************************************************************************
// Type assertion helpers
// *****************************************************************************

func AsInt(obj Object) (int64, error) {
	i, ok := obj.(*Int)
	if !ok {
		return 0, errz.TypeErrorf("expected an integer (%s given)", obj.Type())
	}
	return i.value, nil
}

// *****************************************************************************
// Converting Go values to objects
// *****************************************************************************

// FromGoType converts a constant stored in a bytecode chunk to an Object.
func FromGoType(v any) (Object, error) {
	switch v := v.(type) {
	case nil:
		return Nil, nil
	case bool:
		return NewBool(v), nil
	case int64:
		return NewInt(v), nil
	case int:
		return NewInt(int64(v)), nil
	case float64:
		return NewFloat(v), nil
	case string:
		return NewString(v), nil
	case Object:
		return v, nil
	default:
		return nil, errz.TypeErrorf("unsupported constant type %T", v)
	}
}
