package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/compiler"
	"github.com/Cappucina/ADAN/op"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func program() []ast.Node {
	return []ast.Node{
		&ast.Infix{
			X:  &ast.Ident{Name: "x"},
			Op: ast.OpAssign,
			Y:  &ast.Infix{X: &ast.Int{Value: 1}, Op: ast.OpAdd, Y: &ast.Int{Value: 2}},
		},
		ast.NewIOCall("print", &ast.Ident{Name: "x"}, &ast.String{Value: "hi"}),
	}
}

func TestDisassemble(t *testing.T) {
	chunk, err := compiler.Compile(program(), nil)
	require.Nil(t, err)
	instructions, err := Disassemble(chunk)
	require.Nil(t, err)
	require.Len(t, instructions, 11)

	require.Equal(t, Instruction{
		Offset:     4,
		Name:       "BINARY_OP",
		Opcode:     op.BinaryOp,
		Operands:   []op.Code{op.Code(op.Add)},
		Annotation: "+",
	}, instructions[2])
	require.Equal(t, "x", instructions[3].Annotation)
	require.Equal(t, "hi", instructions[6].Constant)
	require.Equal(t, `"hi"`, instructions[6].Annotation)
	require.Equal(t, 17, instructions[10].Offset)
}

func TestPrint(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	chunk, err := compiler.Compile(program(), nil)
	require.Nil(t, err)
	instructions, err := Disassemble(chunk)
	require.Nil(t, err)

	var buf bytes.Buffer
	require.Nil(t, Print(instructions, &buf))
	expected := strings.TrimSpace(`
+--------+--------------+----------+------+
| OFFSET |    OPCODE    | OPERANDS | INFO |
+--------+--------------+----------+------+
|      0 | LOAD_CONST   |        0 | 1    |
|      2 | LOAD_CONST   |        1 | 2    |
|      4 | BINARY_OP    |        1 | +    |
|      6 | STORE_GLOBAL |        0 | x    |
|      8 | POP_TOP      |          |      |
|      9 | LOAD_GLOBAL  |        0 | x    |
|     11 | LOAD_CONST   |        2 | "hi" |
|     13 | LOAD_CONST   |        3 | 2    |
|     15 | PRINT        |          |      |
|     16 | POP_TOP      |          |      |
|     17 | HALT         |          |      |
+--------+--------------+----------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestPrintNullConstant(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	chunk, err := compiler.Compile([]ast.Node{&ast.Nil{}}, nil)
	require.Nil(t, err)
	instructions, err := Disassemble(chunk)
	require.Nil(t, err)
	var buf bytes.Buffer
	require.Nil(t, Print(instructions, &buf))
	require.Contains(t, buf.String(), "| LOAD_CONST |        0 | null |")
}

func TestDisassembleErrors(t *testing.T) {
	chunk := bytecode.NewChunk(bytecode.ChunkParams{
		Instructions: []op.Code{op.LoadGlobal, 3},
	})
	_, err := Disassemble(chunk)
	require.EqualError(t, err, "name index out of range: 3")

	chunk = bytecode.NewChunk(bytecode.ChunkParams{
		Instructions: []op.Code{op.LoadConst, 0},
	})
	_, err = Disassemble(chunk)
	require.EqualError(t, err, "constant index out of range: 0")

	chunk = bytecode.NewChunk(bytecode.ChunkParams{
		Instructions: []op.Code{99},
	})
	_, err = Disassemble(chunk)
	require.EqualError(t, err, "unknown opcode 99 at offset 0")
}

func TestListing(t *testing.T) {
	chunk, err := compiler.Compile([]ast.Node{&ast.Int{Value: 7}}, &compiler.Config{Name: "demo"})
	require.Nil(t, err)
	require.Equal(t, "== demo ==\n0000 LOAD_CONST 7\n0001 POP_TOP\n0002 HALT\n", Listing(chunk))
}
