package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStructuredErrorMessage(t *testing.T) {
	err := New(ErrValue, ErrDivisionByZero, "division by zero")
	require.Equal(t, "value error: division by zero", err.Error())
	require.True(t, errors.Is(err, ErrDivisionByZero))
	require.False(t, errors.Is(err, ErrModuloByZero))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("generating: %w", NotSupportedf("concatenation"))
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, ErrUnsupported, kind)
	require.True(t, errors.Is(wrapped, ErrNotSupported))

	_, ok = KindOf(errors.New("plain"))
	require.False(t, ok)
}

func TestTypeErrorf(t *testing.T) {
	err := TypeErrorf("unsupported operand types for +: %s and %s", "int", "string")
	require.Equal(t, ErrType, err.Kind)
	require.Equal(t, "type error: unsupported operand types for +: int and string", err.Error())
	require.True(t, errors.Is(err, ErrTypeMismatch))
}
