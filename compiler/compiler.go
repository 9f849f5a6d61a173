// Package compiler is used to compile an ADAN expression tree into the
// corresponding bytecode.
//
// Compilation is a single walk over the tree. Every top-level expression is
// followed by POP_TOP, since top-level results are discarded, and the chunk
// ends with HALT. Operands are pushed left to right, so binary instructions
// pop the right operand first.
//
// # Scopes
//
// Blocks are wrapped in ENTER_SCOPE / EXIT_SCOPE. Plain assignment emits
// STORE_GLOBAL, which the VM resolves innermost frame outward and falls back
// to the global frame. Declarations emit DECLARE_LOCAL or DECLARE_GLOBAL.
// Trees without declarations therefore behave as a single flat namespace.
package compiler

import (
	"math"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/op"
)

// DefaultName is the chunk name used when none is configured.
const DefaultName = "main"

// Compiler is used to compile an expression tree into bytecode.
type Compiler struct {
	name         string
	instructions []op.Code
	constants    []any
	names        []string
	nameIndex    map[string]uint16

	// Set on a compilation error
	failure error
}

// Config holds compiler configuration options.
type Config struct {
	// Name labels the resulting chunk in listings.
	Name string
}

// Compile compiles the given top-level expressions and returns an immutable
// chunk. Pass nil for cfg to use default settings.
func Compile(exprs []ast.Node, cfg *Config) (*bytecode.Chunk, error) {
	return New(cfg).Compile(exprs)
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) *Compiler {
	c := &Compiler{name: DefaultName}
	if cfg != nil && cfg.Name != "" {
		c.name = cfg.Name
	}
	return c
}

// Compile compiles the given top-level expressions. Each call starts from an
// empty chunk. On error no chunk is returned.
func (c *Compiler) Compile(exprs []ast.Node) (*bytecode.Chunk, error) {
	c.instructions = nil
	c.constants = nil
	c.names = nil
	c.nameIndex = map[string]uint16{}
	c.failure = nil

	for _, expr := range exprs {
		if err := c.compile(expr); err != nil {
			return nil, err
		}
		c.emit(op.PopTop)
	}
	c.emit(op.Halt)
	if c.failure != nil {
		return nil, c.failure
	}
	return bytecode.NewChunk(bytecode.ChunkParams{
		Name:         c.name,
		Instructions: c.instructions,
		Constants:    c.constants,
		Names:        c.names,
	}), nil
}

func (c *Compiler) compile(node ast.Node) error {
	switch node := node.(type) {
	case *ast.Nil:
		c.emit(op.LoadConst, c.constant(nil))
	case *ast.Bool:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Int:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Float:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.String:
		c.emit(op.LoadConst, c.constant(node.Value))
	case *ast.Ident:
		c.emit(op.LoadGlobal, c.addName(node.Name))
	case *ast.Infix:
		if node.Op == ast.OpAssign {
			return c.compileAssign(node)
		}
		return c.compileInfix(node)
	case *ast.Call:
		return c.compileCall(node)
	case *ast.Var:
		if err := c.compile(node.Value); err != nil {
			return err
		}
		if node.Scope == ast.Global {
			c.emit(op.DeclareGlobal, c.addName(node.Name))
		} else {
			c.emit(op.DeclareLocal, c.addName(node.Name))
		}
	case *ast.Block:
		c.emit(op.EnterScope)
		if err := c.compileBody(node.Exprs); err != nil {
			return err
		}
		c.emit(op.ExitScope)
		c.emit(op.LoadConst, c.constant(nil))
	case *ast.Program:
		if node.Body != nil {
			if err := c.compileBody(node.Body.Exprs); err != nil {
				return err
			}
		}
		c.emit(op.LoadConst, c.constant(nil))
	case nil:
		return errz.CompileErrorf(errz.ErrUnsupportedExpression, "missing expression")
	default:
		return errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"unsupported expression: %s", node.String())
	}
	return nil
}

func (c *Compiler) compileBody(exprs []ast.Node) error {
	for _, expr := range exprs {
		if err := c.compile(expr); err != nil {
			return err
		}
		c.emit(op.PopTop)
	}
	return nil
}

func (c *Compiler) compileAssign(node *ast.Infix) error {
	ident, ok := node.X.(*ast.Ident)
	if !ok {
		return errz.CompileErrorf(errz.ErrInvalidAssignment,
			"left side of assignment must be an identifier")
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	c.emit(op.StoreGlobal, c.addName(ident.Name))
	return nil
}

func (c *Compiler) compileInfix(node *ast.Infix) error {
	if err := c.compile(node.X); err != nil {
		return err
	}
	if err := c.compile(node.Y); err != nil {
		return err
	}
	switch node.Op {
	case ast.OpAdd:
		c.emit(op.BinaryOp, uint16(op.Add))
	case ast.OpSubtract:
		c.emit(op.BinaryOp, uint16(op.Subtract))
	case ast.OpMultiply:
		c.emit(op.BinaryOp, uint16(op.Multiply))
	case ast.OpDivide:
		c.emit(op.BinaryOp, uint16(op.Divide))
	case ast.OpModulo:
		c.emit(op.BinaryOp, uint16(op.Modulo))
	case ast.OpPower:
		c.emit(op.BinaryOp, uint16(op.Power))
	case ast.OpAnd:
		c.emit(op.BinaryOp, uint16(op.And))
	case ast.OpOr:
		c.emit(op.BinaryOp, uint16(op.Or))
	case ast.OpConcatenate:
		c.emit(op.BinaryOp, uint16(op.Concatenate))
	case ast.OpEqual:
		c.emit(op.CompareOp, uint16(op.Equal))
	case ast.OpNotEqual:
		c.emit(op.CompareOp, uint16(op.NotEqual))
	case ast.OpLess:
		c.emit(op.CompareOp, uint16(op.LessThan))
	case ast.OpLessEqual:
		c.emit(op.CompareOp, uint16(op.LessThanOrEqual))
	case ast.OpGreater:
		c.emit(op.CompareOp, uint16(op.GreaterThan))
	case ast.OpGreaterEq:
		c.emit(op.CompareOp, uint16(op.GreaterThanOrEqual))
	default:
		return errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"unknown operator: %s", node.Op)
	}
	return nil
}

// compileCall handles the io.print and io.printf builtins, the only
// callables in the language.
func (c *Compiler) compileCall(node *ast.Call) error {
	printOp, err := ResolveBuiltin(node.Fun)
	if err != nil {
		return err
	}
	for _, arg := range node.Args {
		if err := c.compile(arg); err != nil {
			return err
		}
	}
	c.emit(op.LoadConst, c.constant(int64(len(node.Args))))
	c.emit(printOp)
	return nil
}

// ResolveBuiltin maps a callee expression to the instruction implementing
// it: PRINT for io.print and PRINT_FORMAT for io.printf.
func ResolveBuiltin(fun ast.Node) (op.Code, error) {
	attr, ok := fun.(*ast.GetAttr)
	if !ok {
		return op.Invalid, errz.New(errz.ErrName, errz.ErrUnknownFunction,
			"unknown function: %s", fun.String())
	}
	module, ok := attr.Module()
	if !ok || module != "io" {
		return op.Invalid, errz.New(errz.ErrName, errz.ErrUnknownFunction,
			"unknown function: %s", attr.String())
	}
	switch attr.Attr {
	case "print":
		return op.Print, nil
	case "printf":
		return op.PrintFormat, nil
	default:
		return op.Invalid, errz.New(errz.ErrName, errz.ErrUnknownFunction,
			"unknown io function: %s", attr.Attr)
	}
}

func (c *Compiler) constant(obj any) uint16 {
	if len(c.constants) >= math.MaxUint16 {
		c.failure = errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"number of constants exceeded limits")
		return 0
	}
	c.constants = append(c.constants, obj)
	return uint16(len(c.constants) - 1)
}

// addName returns the name table index for name, adding it on first use.
func (c *Compiler) addName(name string) uint16 {
	if index, ok := c.nameIndex[name]; ok {
		return index
	}
	if len(c.names) >= math.MaxUint16 {
		c.failure = errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"number of names exceeded limits")
		return 0
	}
	index := uint16(len(c.names))
	c.names = append(c.names, name)
	c.nameIndex[name] = index
	return index
}

func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	inst := makeInstruction(opcode, operands...)
	pos := len(c.instructions)
	c.instructions = append(c.instructions, inst...)
	return pos
}

func makeInstruction(opcode op.Code, operands ...uint16) []op.Code {
	opInfo := op.GetInfo(opcode)
	if len(operands) != opInfo.OperandCount {
		panic("compile error: wrong operand count")
	}
	instruction := make([]op.Code, 1+opInfo.OperandCount)
	instruction[0] = opcode
	offset := 1
	for _, o := range operands {
		instruction[offset] = op.Code(o)
		offset++
	}
	return instruction
}
