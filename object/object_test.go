package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthiness(t *testing.T) {
	require.False(t, Nil.IsTruthy())
	require.True(t, True.IsTruthy())
	require.False(t, False.IsTruthy())
	require.False(t, NewInt(0).IsTruthy())
	require.True(t, NewInt(-3).IsTruthy())
	require.False(t, NewFloat(0).IsTruthy())
	require.True(t, NewFloat(0.1).IsTruthy())
	require.False(t, NewString("").IsTruthy())
	require.True(t, NewString("0").IsTruthy())
}

func TestInspect(t *testing.T) {
	tests := []struct {
		obj      Object
		expected string
	}{
		{Nil, "null"},
		{True, "true"},
		{False, "false"},
		{NewInt(-42), "-42"},
		{NewFloat(0.5), "0.5"},
		{NewFloat(1), "1"},
		{NewFloat(1e21), "1000000000000000000000"},
		{NewFloat(math.Inf(1)), "inf"},
		{NewFloat(math.Inf(-1)), "-inf"},
		{NewFloat(math.NaN()), "NaN"},
		{NewString("hi there"), "hi there"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, tt.obj.Inspect())
	}
}

func TestEqualsIsStructural(t *testing.T) {
	require.True(t, NewInt(5).Equals(NewInt(5)))
	require.False(t, NewInt(5).Equals(NewFloat(5)))
	require.False(t, NewFloat(5).Equals(NewInt(5)))
	require.True(t, NewString("x").Equals(NewString("x")))
	require.False(t, NewString("1").Equals(NewInt(1)))
	require.True(t, NewBool(true).Equals(True))
	require.False(t, False.Equals(Nil))
}

func TestInterface(t *testing.T) {
	require.Nil(t, Nil.Interface())
	require.Equal(t, int64(3), NewInt(3).Interface())
	require.Equal(t, 2.5, NewFloat(2.5).Interface())
	require.Equal(t, "s", NewString("s").Interface())
	require.Equal(t, true, True.Interface())
}
