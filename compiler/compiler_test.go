package compiler

import (
	"errors"
	"testing"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/op"
	"github.com/stretchr/testify/require"
)

func words(chunk *bytecode.Chunk) []op.Code {
	var result []op.Code
	for i := 0; i < chunk.Len(); i++ {
		result = append(result, chunk.WordAt(i))
	}
	return result
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func integer(v int64) *ast.Int { return &ast.Int{Value: v} }

func infix(x ast.Node, operator string, y ast.Node) *ast.Infix {
	return &ast.Infix{X: x, Op: operator, Y: y}
}

func TestCompileLiteral(t *testing.T) {
	chunk, err := Compile([]ast.Node{integer(42)}, nil)
	require.Nil(t, err)
	require.Equal(t, "main", chunk.Name())
	require.Equal(t, []op.Code{
		op.LoadConst, 0,
		op.PopTop,
		op.Halt,
	}, words(chunk))
	require.Equal(t, int64(42), chunk.ConstantAt(0))
}

func TestCompileAssignment(t *testing.T) {
	chunk, err := Compile([]ast.Node{
		infix(ident("x"), ast.OpAssign, integer(1)),
		infix(ident("x"), ast.OpAdd, ident("x")),
	}, &Config{Name: "prog"})
	require.Nil(t, err)
	require.Equal(t, "prog", chunk.Name())
	require.Equal(t, []op.Code{
		op.LoadConst, 0,
		op.StoreGlobal, 0,
		op.PopTop,
		op.LoadGlobal, 0,
		op.LoadGlobal, 0,
		op.BinaryOp, op.Code(op.Add),
		op.PopTop,
		op.Halt,
	}, words(chunk))
	require.Equal(t, 1, chunk.NameCount())
}

func TestCompileOperatorOrder(t *testing.T) {
	chunk, err := Compile([]ast.Node{
		infix(integer(10), ast.OpSubtract, integer(4)),
	}, nil)
	require.Nil(t, err)
	require.Equal(t, int64(10), chunk.ConstantAt(0))
	require.Equal(t, int64(4), chunk.ConstantAt(1))
	require.Equal(t, []op.Code{
		op.LoadConst, 0,
		op.LoadConst, 1,
		op.BinaryOp, op.Code(op.Subtract),
		op.PopTop,
		op.Halt,
	}, words(chunk))
}

func TestCompileOperators(t *testing.T) {
	tests := []struct {
		operator string
		opcode   op.Code
		operand  op.Code
	}{
		{ast.OpAdd, op.BinaryOp, op.Code(op.Add)},
		{ast.OpSubtract, op.BinaryOp, op.Code(op.Subtract)},
		{ast.OpMultiply, op.BinaryOp, op.Code(op.Multiply)},
		{ast.OpDivide, op.BinaryOp, op.Code(op.Divide)},
		{ast.OpModulo, op.BinaryOp, op.Code(op.Modulo)},
		{ast.OpPower, op.BinaryOp, op.Code(op.Power)},
		{ast.OpAnd, op.BinaryOp, op.Code(op.And)},
		{ast.OpOr, op.BinaryOp, op.Code(op.Or)},
		{ast.OpConcatenate, op.BinaryOp, op.Code(op.Concatenate)},
		{ast.OpEqual, op.CompareOp, op.Code(op.Equal)},
		{ast.OpNotEqual, op.CompareOp, op.Code(op.NotEqual)},
		{ast.OpLess, op.CompareOp, op.Code(op.LessThan)},
		{ast.OpLessEqual, op.CompareOp, op.Code(op.LessThanOrEqual)},
		{ast.OpGreater, op.CompareOp, op.Code(op.GreaterThan)},
		{ast.OpGreaterEq, op.CompareOp, op.Code(op.GreaterThanOrEqual)},
	}
	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			chunk, err := Compile([]ast.Node{infix(integer(1), tt.operator, integer(2))}, nil)
			require.Nil(t, err)
			w := words(chunk)
			require.Equal(t, tt.opcode, w[4])
			require.Equal(t, tt.operand, w[5])
		})
	}
}

func TestCompilePrint(t *testing.T) {
	chunk, err := Compile([]ast.Node{
		ast.NewIOCall("print", integer(1), &ast.String{Value: "x"}, &ast.Bool{Value: true}),
		ast.NewIOCall("printf"),
	}, nil)
	require.Nil(t, err)
	require.Equal(t, []op.Code{
		op.LoadConst, 0,
		op.LoadConst, 1,
		op.LoadConst, 2,
		op.LoadConst, 3,
		op.Print,
		op.PopTop,
		op.LoadConst, 4,
		op.PrintFormat,
		op.PopTop,
		op.Halt,
	}, words(chunk))
	require.Equal(t, int64(3), chunk.ConstantAt(3))
	require.Equal(t, int64(0), chunk.ConstantAt(4))
}

func TestCompileColonSeparator(t *testing.T) {
	call := &ast.Call{
		Fun:  &ast.GetAttr{X: ident("io"), Sep: ":", Attr: "printf"},
		Args: []ast.Node{integer(1)},
	}
	chunk, err := Compile([]ast.Node{call}, nil)
	require.Nil(t, err)
	require.Equal(t, op.PrintFormat, chunk.WordAt(4))
}

func TestCompileBlock(t *testing.T) {
	chunk, err := Compile([]ast.Node{
		&ast.Block{Exprs: []ast.Node{
			&ast.Var{Scope: ast.Local, Name: "x", Value: integer(1)},
			&ast.Var{Scope: ast.Global, Name: "y", Value: ident("x")},
		}},
	}, nil)
	require.Nil(t, err)
	require.Equal(t, []op.Code{
		op.EnterScope,
		op.LoadConst, 0,
		op.DeclareLocal, 0,
		op.PopTop,
		op.LoadGlobal, 0,
		op.DeclareGlobal, 1,
		op.PopTop,
		op.ExitScope,
		op.LoadConst, 1,
		op.PopTop,
		op.Halt,
	}, words(chunk))
	require.Nil(t, chunk.ConstantAt(1))
}

func TestCompileProgram(t *testing.T) {
	chunk, err := Compile([]ast.Node{
		&ast.Program{
			Name:   "main",
			Params: []*ast.Param{{Name: "argc", Type: "int"}},
			Body:   &ast.Block{Exprs: []ast.Node{integer(5)}},
		},
	}, nil)
	require.Nil(t, err)
	require.Equal(t, []op.Code{
		op.LoadConst, 0,
		op.PopTop,
		op.LoadConst, 1,
		op.PopTop,
		op.Halt,
	}, words(chunk))
}

func TestInstructionCountProperty(t *testing.T) {
	for n := 0; n < 20; n++ {
		var exprs []ast.Node
		for i := 0; i < n; i++ {
			switch i % 4 {
			case 0:
				exprs = append(exprs, integer(int64(i)))
			case 1:
				exprs = append(exprs, &ast.String{Value: "s"})
			case 2:
				exprs = append(exprs, &ast.Float{Value: 0.5})
			default:
				exprs = append(exprs, &ast.Nil{})
			}
		}
		chunk, err := Compile(exprs, nil)
		require.Nil(t, err)
		require.Equal(t, 2*n+1, chunk.InstructionCount())

		pops := 0
		for _, instr := range chunk.Instructions() {
			if instr.Opcode == op.PopTop {
				pops++
			}
		}
		require.Equal(t, n, pops)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		node  ast.Node
		cause error
		msg   string
	}{
		{
			"assign to literal",
			infix(integer(1), ast.OpAssign, integer(2)),
			errz.ErrInvalidAssignment,
			"compile error: left side of assignment must be an identifier",
		},
		{
			"unknown function",
			&ast.Call{Fun: ident("print")},
			errz.ErrUnknownFunction,
			"name error: unknown function: print",
		},
		{
			"unknown module",
			&ast.Call{Fun: &ast.GetAttr{X: ident("os"), Attr: "print"}},
			errz.ErrUnknownFunction,
			"name error: unknown function: os.print",
		},
		{
			"unknown io function",
			ast.NewIOCall("println"),
			errz.ErrUnknownFunction,
			"name error: unknown io function: println",
		},
		{
			"index",
			&ast.Index{X: ident("x"), Index: integer(0)},
			errz.ErrUnsupportedExpression,
			"compile error: unsupported expression: x[0]",
		},
		{
			"bare attribute",
			&ast.GetAttr{X: ident("io"), Sep: ".", Attr: "print"},
			errz.ErrUnsupportedExpression,
			"compile error: unsupported expression: io.print",
		},
		{
			"unknown operator",
			infix(integer(1), "**", integer(2)),
			errz.ErrUnsupportedExpression,
			"compile error: unknown operator: **",
		},
		{
			"nested error",
			ast.NewIOCall("print", infix(&ast.String{Value: "a"}, ast.OpAssign, integer(1))),
			errz.ErrInvalidAssignment,
			"compile error: left side of assignment must be an identifier",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := Compile([]ast.Node{tt.node}, nil)
			require.Nil(t, chunk)
			require.NotNil(t, err)
			require.True(t, errors.Is(err, tt.cause))
			require.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestCompilerReuse(t *testing.T) {
	c := New(nil)
	first, err := c.Compile([]ast.Node{integer(1), integer(2)})
	require.Nil(t, err)
	second, err := c.Compile([]ast.Node{integer(3)})
	require.Nil(t, err)
	require.Equal(t, 5, first.InstructionCount())
	require.Equal(t, 3, second.InstructionCount())
	require.Equal(t, int64(3), second.ConstantAt(0))
}
