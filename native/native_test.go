package native

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/errz"
	"github.com/stretchr/testify/require"
)

func TestAsmExtension(t *testing.T) {
	require.Equal(t, ".asm", X86_64Linux.AsmExtension())
	require.Equal(t, ".asm", X86_64MacOS.AsmExtension())
	require.Equal(t, ".s", AArch64MacOS.AsmExtension())
	require.Equal(t, ".s", AArch64Linux.AsmExtension())
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name     string
		expected Target
	}{
		{"x86_64-linux", X86_64Linux},
		{"linux", X86_64Linux},
		{"x86-64-macos", X86_64MacOS},
		{"macos", X86_64MacOS},
		{"apple-silicon", AArch64MacOS},
		{"ARM64-macOS", AArch64MacOS},
		{"aarch64-linux", AArch64Linux},
		{" arm64-linux ", AArch64Linux},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := ParseTarget(tt.name)
			require.Nil(t, err)
			require.Equal(t, tt.expected, target)
		})
	}
	_, err := ParseTarget("riscv64-linux")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "x86_64-linux, x86_64-macos, aarch64-macos, aarch64-linux")
}

func TestTargetNamesRoundTrip(t *testing.T) {
	for _, target := range Targets() {
		parsed, err := ParseTarget(target.String())
		require.Nil(t, err)
		require.Equal(t, target, parsed)
	}
}

func TestTargetFor(t *testing.T) {
	target, err := targetFor("darwin", "arm64")
	require.Nil(t, err)
	require.Equal(t, AArch64MacOS, target)

	target, err = targetFor("linux", "amd64")
	require.Nil(t, err)
	require.Equal(t, X86_64Linux, target)

	_, err = targetFor("windows", "amd64")
	require.NotNil(t, err)
	_, err = targetFor("linux", "386")
	require.NotNil(t, err)
}

func TestBuffer(t *testing.T) {
	b := NewBuffer("//")
	b.Header("generated")
	b.Directive(".text")
	b.Label("main")
	b.Instr("mov x0, #%d", 1)
	b.Comment("done")
	b.Blank()
	require.Equal(t, "// generated\n.text\nmain:\n    mov x0, #1\n    // done\n\n", b.String())
}

func TestLiteralPool(t *testing.T) {
	var labels Labels
	pool := NewLiteralPool(&labels)
	require.True(t, pool.Empty())

	require.Equal(t, "L0", pool.String("hi"))
	require.Equal(t, "L1", pool.Float(1.5))
	require.Equal(t, "L0", pool.String("hi"))
	require.Equal(t, "L2", labels.Next())
	require.Equal(t, "L3", pool.String(""))
	require.Equal(t, "L1", pool.Float(1.5))
	require.Equal(t, "L4", pool.Float(math.Copysign(0, -1)))
	require.Equal(t, "L5", pool.Float(0))

	require.Equal(t, []StringLiteral{{"L0", "hi"}, {"L3", ""}}, pool.Strings())
	require.Len(t, pool.Floats(), 3)

	labels.Reset()
	require.Equal(t, "L0", labels.Next())
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{1.5, "1.5"},
		{2, "2.0"},
		{-3, "-3.0"},
		{1e21, "1.0e+21"},
		{1.25e-7, "1.25e-07"},
		{0.1, "0.1"},
	}
	for _, tt := range tests {
		text, ok := FormatFloat(tt.value)
		require.True(t, ok)
		require.Equal(t, tt.expected, text)
	}
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		_, ok := FormatFloat(v)
		require.False(t, ok)
	}
	require.Equal(t, "0x7ff0000000000000", FloatBits(math.Inf(1)))
	require.Equal(t, "0x3ff8000000000000", FloatBits(1.5))
}

func TestNASMBytes(t *testing.T) {
	require.Equal(t, `"hello"`, NASMBytes("hello"))
	require.Equal(t, `"say ", 34, "hi", 34, 10`, NASMBytes("say \"hi\"\n"))
	require.Equal(t, `9, "a\b"`, NASMBytes("\ta\\b"))
	require.Equal(t, `"caf", 195, 169`, NASMBytes("café"))
	require.Equal(t, "", NASMBytes(""))
}

func TestGASString(t *testing.T) {
	require.Equal(t, `"hello"`, GASString("hello"))
	require.Equal(t, `"say \"hi\"\n"`, GASString("say \"hi\"\n"))
	require.Equal(t, `"\ta\\b"`, GASString("\ta\\b"))
	require.Equal(t, `"\000\033"`, GASString("\x00\x1b"))
	require.Equal(t, `"caf\303\251"`, GASString("café"))
	require.Equal(t, `""`, GASString(""))
}

func TestLegacySlot(t *testing.T) {
	require.Equal(t, 0, LegacySlot(""))
	require.Equal(t, 120, LegacySlot("x"))
	// 'a'*31 + 'b' = 97*31 + 98 = 3105
	require.Equal(t, 105, LegacySlot("ab"))
	for _, name := range []string{"counter", "a_very_long_variable_name_that_wraps_the_hash"} {
		slot := LegacySlot(name)
		require.GreaterOrEqual(t, slot, 0)
		require.Less(t, slot, LegacySlotCount)
	}
}

// collidingNames returns two distinct names with the same legacy slot.
func collidingNames(t *testing.T) (string, string) {
	t.Helper()
	seen := map[int]string{}
	for i := 0; i <= LegacySlotCount; i++ {
		name := fmt.Sprintf("v%d", i)
		slot := LegacySlot(name)
		if other, ok := seen[slot]; ok {
			return other, name
		}
		seen[slot] = name
	}
	t.Fatal("no collision found")
	return "", ""
}

func TestSymbolTableAvoidsLegacyCollisions(t *testing.T) {
	a, b := collidingNames(t)
	require.Equal(t, LegacySlot(a), LegacySlot(b))

	table := NewSymbolTable(false)
	symA, err := table.Assign(a, Int)
	require.Nil(t, err)
	symB, err := table.Assign(b, Int)
	require.Nil(t, err)
	require.NotEqual(t, symA.Slot, symB.Slot)
	require.Equal(t, 2, table.Slots())
	require.Equal(t, 16, table.StorageSize())

	// The aliasing the hashed layout would cause is reported.
	require.Equal(t, [][]string{sortedPair(a, b)}, table.LegacyCollisions())
}

func sortedPair(a, b string) []string {
	if b < a {
		return []string{b, a}
	}
	return []string{a, b}
}

func TestLegacySymbolTableRejectsCollisions(t *testing.T) {
	a, b := collidingNames(t)

	table := NewSymbolTable(true)
	sym, err := table.Assign(a, Int)
	require.Nil(t, err)
	require.Equal(t, LegacySlot(a), sym.Slot)
	require.Equal(t, LegacySlot(a)*SlotSize, sym.Offset())
	require.Equal(t, LegacySlotCount, table.Slots())

	// Rebinding the same name is fine.
	_, err = table.Assign(a, String)
	require.Nil(t, err)

	_, err = table.Assign(b, Int)
	require.NotNil(t, err)
	require.True(t, errors.Is(err, errz.ErrSlotCollision))
}

func TestLegacySymbolTableRejectsShadowing(t *testing.T) {
	table := NewSymbolTable(true)
	_, err := table.Assign("x", Int)
	require.Nil(t, err)

	table.PushScope()
	_, err = table.DeclareLocal("x", Int)
	require.NotNil(t, err)
	require.True(t, errors.Is(err, errz.ErrSlotCollision))
	require.Equal(t,
		`compile error: variable "x" is already bound in another scope and would share storage slot 120`,
		err.Error())

	// A global declared while a local of the same name is live is rejected too.
	_, err = table.DeclareLocal("y", Int)
	require.Nil(t, err)
	_, err = table.DeclareGlobal("y", Int)
	require.True(t, errors.Is(err, errz.ErrSlotCollision))
	table.PopScope()

	// Bindings in sibling blocks never overlap in time.
	for i := 0; i < 2; i++ {
		table.PushScope()
		_, err = table.DeclareLocal("z", Float)
		require.Nil(t, err)
		table.PopScope()
	}

	// Without the hashed layout the local gets its own slot.
	table = NewSymbolTable(false)
	global, err := table.Assign("x", Int)
	require.Nil(t, err)
	table.PushScope()
	local, err := table.DeclareLocal("x", Int)
	require.Nil(t, err)
	require.NotEqual(t, global.Slot, local.Slot)
}

func TestSymbolTableScopes(t *testing.T) {
	table := NewSymbolTable(false)
	require.Equal(t, 1, table.Slots())

	global, err := table.Assign("x", Int)
	require.Nil(t, err)

	table.PushScope()
	require.Equal(t, 2, table.Depth())
	local, err := table.DeclareLocal("x", String)
	require.Nil(t, err)
	require.NotEqual(t, global.Slot, local.Slot)

	sym, err := table.Read("x")
	require.Nil(t, err)
	require.Equal(t, local, sym)

	// Assignment rebinds the innermost binding and records the new type.
	sym, err = table.Assign("x", Float)
	require.Nil(t, err)
	require.Equal(t, local, sym)
	require.Equal(t, Float, local.Type)

	// Unbound names land in the global scope.
	_, err = table.Assign("y", Bool)
	require.Nil(t, err)
	g, err := table.DeclareGlobal("z", Null)
	require.Nil(t, err)

	table.PopScope()
	sym, err = table.Read("x")
	require.Nil(t, err)
	require.Equal(t, global, sym)
	require.Equal(t, Int, sym.Type)

	sym, err = table.Read("z")
	require.Nil(t, err)
	require.Equal(t, g, sym)
	_, ok := table.Resolve("y")
	require.True(t, ok)

	// Slots are never reused.
	require.Equal(t, 4, table.Slots())

	// The global scope is never popped.
	table.PopScope()
	require.Equal(t, 1, table.Depth())
}

func TestSymbolTableUndefined(t *testing.T) {
	table := NewSymbolTable(false)
	_, err := table.Read("missing")
	require.NotNil(t, err)
	require.True(t, errors.Is(err, errz.ErrUndefinedVariable))
	require.Equal(t, "name error: undefined variable: missing", err.Error())
}

func TestBinaryResult(t *testing.T) {
	full := Capabilities{StringConcat: true}
	tests := []struct {
		op       string
		left     Type
		right    Type
		caps     Capabilities
		expected Type
		cause    error
	}{
		{ast.OpAdd, Int, Int, full, Int, nil},
		{ast.OpAdd, Int, Float, full, Float, nil},
		{ast.OpSubtract, Float, Int, full, Float, nil},
		{ast.OpDivide, Int, Int, full, Int, nil},
		{ast.OpAdd, String, String, full, String, nil},
		{ast.OpAdd, String, String, Capabilities{}, Null, errz.ErrNotSupported},
		{ast.OpConcatenate, String, String, full, String, nil},
		{ast.OpConcatenate, String, String, Capabilities{}, Null, errz.ErrNotSupported},
		{ast.OpConcatenate, Int, String, full, Null, errz.ErrNotSupported},
		{ast.OpAdd, Int, String, full, Null, errz.ErrTypeMismatch},
		{ast.OpMultiply, Bool, Int, full, Null, errz.ErrTypeMismatch},
		{ast.OpModulo, Int, Int, full, Int, nil},
		{ast.OpModulo, Float, Int, full, Null, errz.ErrNotSupported},
		{ast.OpPower, Int, Int, full, Int, nil},
		{ast.OpPower, Int, Float, full, Null, errz.ErrNotSupported},
		{ast.OpPower, String, Int, full, Null, errz.ErrTypeMismatch},
		{ast.OpAnd, Int, Bool, full, Bool, nil},
		{ast.OpOr, Null, Int, full, Bool, nil},
		{ast.OpAnd, Float, Int, full, Null, errz.ErrNotSupported},
		{ast.OpOr, String, Bool, full, Null, errz.ErrNotSupported},
		{ast.OpEqual, String, Int, full, Bool, nil},
		{ast.OpNotEqual, Null, Null, full, Bool, nil},
		{ast.OpLess, Int, Float, full, Bool, nil},
		{ast.OpGreaterEq, String, String, full, Null, errz.ErrTypeMismatch},
	}
	for _, tt := range tests {
		name := fmt.Sprintf("%s %s %s", tt.left, tt.op, tt.right)
		t.Run(name, func(t *testing.T) {
			result, err := BinaryResult(tt.op, tt.left, tt.right, tt.caps)
			if tt.cause != nil {
				require.True(t, errors.Is(err, tt.cause), "got %v", err)
				return
			}
			require.Nil(t, err)
			require.Equal(t, tt.expected, result)
		})
	}
}

func TestBinaryResultMessages(t *testing.T) {
	_, err := BinaryResult(ast.OpAdd, Int, String, Capabilities{})
	require.Equal(t, "type error: unsupported operand types for +: int and string", err.Error())

	_, err = BinaryResult(ast.OpConcatenate, String, String, Capabilities{})
	require.Equal(t, "unsupported: .. on string and string is not supported in native mode", err.Error())

	_, err = BinaryResult("<>", Int, Int, Capabilities{})
	kind, ok := errz.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errz.ErrCompile, kind)
}

func TestOptions(t *testing.T) {
	require.False(t, NewOptions().LegacySlots)
	require.True(t, NewOptions(WithLegacySlots()).LegacySlots)
}
