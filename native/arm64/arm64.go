// Package arm64 generates AArch64 assembly in GNU as syntax for macOS and
// Linux.
//
// Integer, boolean, null and string values live in x0; floats live in d0.
// The left operand of a binary operator is saved in a 16-byte stack slot so
// sp stays aligned. On macOS variadic printf arguments are passed on the
// stack; on Linux they are passed in registers.
package arm64

import (
	"fmt"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/compiler"
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/native"
	"github.com/Cappucina/ADAN/op"
)

const storage = "var_storage"

// maxScaledOffset is the largest byte offset a 64-bit ldr/str can encode.
const maxScaledOffset = 4095 * 8

var caps = native.Capabilities{StringConcat: false}

// Generator compiles expressions to GNU as source. A Generator may be reused
// but not shared between goroutines.
type Generator struct {
	os      native.OS
	opts    native.Options
	buf     *native.Buffer
	labels  native.Labels
	pool    *native.LiteralPool
	symbols *native.SymbolTable
}

// New returns a generator for AArch64 on the given operating system.
func New(os native.OS, opts ...native.Option) *Generator {
	return &Generator{os: os, opts: native.NewOptions(opts...)}
}

func (g *Generator) commentPrefix() string {
	if g.os == native.MacOS {
		return ";"
	}
	return "//"
}

// Generate compiles the top-level expressions into a complete program
// whose main function runs them in order and returns zero.
func (g *Generator) Generate(exprs []ast.Node) (string, error) {
	g.buf = native.NewBuffer(g.commentPrefix())
	g.labels.Reset()
	g.pool = native.NewLiteralPool(&g.labels)
	g.symbols = native.NewSymbolTable(g.opts.LegacySlots)

	for _, expr := range exprs {
		if _, err := g.expr(expr); err != nil {
			return "", err
		}
	}
	body := g.buf

	out := native.NewBuffer(g.commentPrefix())
	g.writePrologue(out)
	tail := native.NewBuffer(g.commentPrefix())
	g.writeEpilogue(tail)
	return out.String() + body.String() + tail.String(), nil
}

func (g *Generator) sym(name string) string {
	if g.os == native.MacOS {
		return "_" + name
	}
	return name
}

// address loads the address of a data symbol into reg.
func (g *Generator) address(reg, symbol string) {
	if g.os == native.MacOS {
		g.buf.Instr("adrp %s, %s@PAGE", reg, symbol)
		g.buf.Instr("add %s, %s, %s@PAGEOFF", reg, reg, symbol)
		return
	}
	g.buf.Instr("adrp %s, %s", reg, symbol)
	g.buf.Instr("add %s, %s, :lo12:%s", reg, reg, symbol)
}

func (g *Generator) writePrologue(b *native.Buffer) {
	platform := "Linux"
	if g.os == native.MacOS {
		platform = "macOS"
	}
	b.Header("ADAN compiled to ARM64 assembly (%s)", platform)
	b.Blank()
	b.Directive(".data")
	b.Directive(".align 3")
	b.Directive(`fmt_int: .asciz "%%lld"`)
	b.Directive(`fmt_float: .asciz "%%.15g"`)
	b.Directive(`fmt_str: .asciz "%%s"`)
	b.Directive(`fmt_bool_true: .asciz "true"`)
	b.Directive(`fmt_bool_false: .asciz "false"`)
	b.Directive(`fmt_null: .asciz "null"`)
	b.Directive(`fmt_newline: .asciz "\n"`)
	b.Directive(`fmt_space: .asciz " "`)
	b.Blank()
	b.Directive(".bss")
	b.Directive(".align 3")
	b.Directive("%s: .space %d", storage, g.symbols.StorageSize())
	b.Blank()
	b.Directive(".text")
	b.Directive(".global %s", g.sym("main"))
	b.Directive(".align 2")
	b.Blank()
	b.Label(g.sym("main"))
	b.Instr("stp x29, x30, [sp, #-16]!")
	b.Instr("mov x29, sp")
	b.Blank()
}

func (g *Generator) writeEpilogue(b *native.Buffer) {
	b.Blank()
	b.Comment("return 0")
	b.Instr("mov w0, #0")
	b.Instr("ldp x29, x30, [sp], #16")
	b.Instr("ret")
	b.Blank()
	if len(g.pool.Strings()) > 0 {
		b.Directive(".data")
		for _, lit := range g.pool.Strings() {
			b.Directive("%s: .asciz %s", lit.Label, native.GASString(lit.Value))
		}
		b.Blank()
	}
	if len(g.pool.Floats()) > 0 {
		b.Directive(".data")
		b.Directive(".align 3")
		for _, lit := range g.pool.Floats() {
			if text, ok := native.FormatFloat(lit.Value); ok {
				b.Directive("%s: .double %s", lit.Label, text)
			} else {
				b.Directive("%s: .quad %s", lit.Label, native.FloatBits(lit.Value))
			}
		}
		b.Blank()
	}
	if g.os == native.Linux {
		b.Directive(`.section .note.GNU-stack,"",%%progbits`)
	}
}

// movImmediate materializes a 64-bit constant with movz/movk.
func (g *Generator) movImmediate(reg string, value int64) {
	u := uint64(value)
	g.buf.Instr("movz %s, #0x%x", reg, u&0xffff)
	for shift := 16; shift < 64; shift += 16 {
		if part := (u >> shift) & 0xffff; part != 0 {
			g.buf.Instr("movk %s, #0x%x, lsl #%d", reg, part, shift)
		}
	}
}

func (g *Generator) expr(node ast.Node) (native.Type, error) {
	switch node := node.(type) {
	case *ast.Nil:
		g.buf.Instr("mov x0, #0")
		return native.Null, nil
	case *ast.Bool:
		if node.Value {
			g.buf.Instr("mov x0, #1")
		} else {
			g.buf.Instr("mov x0, #0")
		}
		return native.Bool, nil
	case *ast.Int:
		g.movImmediate("x0", node.Value)
		return native.Int, nil
	case *ast.Float:
		g.address("x9", g.pool.Float(node.Value))
		g.buf.Instr("ldr d0, [x9]")
		return native.Float, nil
	case *ast.String:
		g.address("x0", g.pool.String(node.Value))
		return native.String, nil
	case *ast.Ident:
		sym, err := g.symbols.Read(node.Name)
		if err != nil {
			return native.Null, err
		}
		g.access("ldr", sym)
		return sym.Type, nil
	case *ast.Infix:
		if node.Op == ast.OpAssign {
			return g.assign(node)
		}
		return g.infix(node)
	case *ast.Call:
		return g.ioCall(node)
	case *ast.Var:
		typ, err := g.expr(node.Value)
		if err != nil {
			return native.Null, err
		}
		var sym *native.Symbol
		if node.Scope == ast.Global {
			sym, err = g.symbols.DeclareGlobal(node.Name, typ)
		} else {
			sym, err = g.symbols.DeclareLocal(node.Name, typ)
		}
		if err != nil {
			return native.Null, err
		}
		g.access("str", sym)
		return typ, nil
	case *ast.Block:
		g.symbols.PushScope()
		for _, expr := range node.Exprs {
			if _, err := g.expr(expr); err != nil {
				return native.Null, err
			}
		}
		g.symbols.PopScope()
		g.buf.Instr("mov x0, #0")
		return native.Null, nil
	case *ast.Program:
		if node.Body != nil {
			for _, expr := range node.Body.Exprs {
				if _, err := g.expr(expr); err != nil {
					return native.Null, err
				}
			}
		}
		g.buf.Instr("mov x0, #0")
		return native.Null, nil
	case nil:
		return native.Null, errz.CompileErrorf(errz.ErrUnsupportedExpression, "missing expression")
	default:
		return native.Null, errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"unsupported expression: %s", node.String())
	}
}

// access loads or stores the symbol's slot using x0 or d0.
func (g *Generator) access(instr string, sym *native.Symbol) {
	reg := "x0"
	if sym.Type == native.Float {
		reg = "d0"
	}
	g.address("x9", storage)
	offset := sym.Offset()
	if offset <= maxScaledOffset {
		g.buf.Instr("%s %s, [x9, #%d]", instr, reg, offset)
		return
	}
	g.movImmediate("x10", int64(offset))
	g.buf.Instr("%s %s, [x9, x10]", instr, reg)
}

func (g *Generator) assign(node *ast.Infix) (native.Type, error) {
	ident, ok := node.X.(*ast.Ident)
	if !ok {
		return native.Null, errz.CompileErrorf(errz.ErrInvalidAssignment,
			"left side of assignment must be an identifier")
	}
	typ, err := g.expr(node.Y)
	if err != nil {
		return native.Null, err
	}
	sym, err := g.symbols.Assign(ident.Name, typ)
	if err != nil {
		return native.Null, err
	}
	g.access("str", sym)
	return typ, nil
}

func (g *Generator) infix(node *ast.Infix) (native.Type, error) {
	left, err := g.expr(node.X)
	if err != nil {
		return native.Null, err
	}
	if left == native.Float {
		g.buf.Instr("str d0, [sp, #-16]!")
	} else {
		g.buf.Instr("str x0, [sp, #-16]!")
	}
	right, err := g.expr(node.Y)
	if err != nil {
		return native.Null, err
	}
	result, err := native.BinaryResult(node.Op, left, right, caps)
	if err != nil {
		return native.Null, err
	}

	switch node.Op {
	case ast.OpEqual, ast.OpNotEqual:
		g.equality(node.Op, left, right)
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEq:
		if left == native.Float || right == native.Float {
			g.floatOperands(left, right)
			g.buf.Instr("fcmp d0, d1")
			g.buf.Instr("cset x0, %s", floatCond[node.Op])
		} else {
			g.intOperands()
			g.buf.Instr("cmp x0, x1")
			g.buf.Instr("cset x0, %s", intCond[node.Op])
		}
	case ast.OpAnd, ast.OpOr:
		g.intOperands()
		g.buf.Instr("cmp x0, #0")
		g.buf.Instr("cset x0, ne")
		g.buf.Instr("cmp x1, #0")
		g.buf.Instr("cset x1, ne")
		if node.Op == ast.OpAnd {
			g.buf.Instr("and x0, x0, x1")
		} else {
			g.buf.Instr("orr x0, x0, x1")
		}
	case ast.OpPower:
		if lit, ok := node.Y.(*ast.Int); ok && lit.Value < 0 {
			return native.Null, errz.NotSupportedf(
				"negative integer exponent is not supported in native mode")
		}
		g.intOperands()
		g.power()
	default:
		g.arithmetic(node.Op, left, right, result)
	}
	return result, nil
}

var intCond = map[string]string{
	ast.OpEqual:     "eq",
	ast.OpNotEqual:  "ne",
	ast.OpLess:      "lt",
	ast.OpLessEqual: "le",
	ast.OpGreater:   "gt",
	ast.OpGreaterEq: "ge",
}

// Conditions after fcmp that are false for unordered operands, except ne.
var floatCond = map[string]string{
	ast.OpEqual:     "eq",
	ast.OpNotEqual:  "ne",
	ast.OpLess:      "mi",
	ast.OpLessEqual: "ls",
	ast.OpGreater:   "gt",
	ast.OpGreaterEq: "ge",
}

// intOperands loads the saved left operand into x0 with the right one in x1.
func (g *Generator) intOperands() {
	g.buf.Instr("mov x1, x0")
	g.buf.Instr("ldr x0, [sp], #16")
}

// floatOperands loads the saved left operand into d0 with the right one in
// d1, converting integers to double.
func (g *Generator) floatOperands(left, right native.Type) {
	if right == native.Float {
		g.buf.Instr("fmov d1, d0")
	} else {
		g.buf.Instr("scvtf d1, x0")
	}
	if left == native.Float {
		g.buf.Instr("ldr d0, [sp], #16")
	} else {
		g.buf.Instr("ldr x0, [sp], #16")
		g.buf.Instr("scvtf d0, x0")
	}
}

func (g *Generator) arithmetic(operator string, left, right, result native.Type) {
	if result == native.Float {
		g.floatOperands(left, right)
		switch operator {
		case ast.OpAdd:
			g.buf.Instr("fadd d0, d0, d1")
		case ast.OpSubtract:
			g.buf.Instr("fsub d0, d0, d1")
		case ast.OpMultiply:
			g.buf.Instr("fmul d0, d0, d1")
		case ast.OpDivide:
			g.buf.Instr("fdiv d0, d0, d1")
		}
		return
	}
	g.intOperands()
	switch operator {
	case ast.OpAdd:
		g.buf.Instr("add x0, x0, x1")
	case ast.OpSubtract:
		g.buf.Instr("sub x0, x0, x1")
	case ast.OpMultiply:
		g.buf.Instr("mul x0, x0, x1")
	case ast.OpDivide:
		g.buf.Instr("sdiv x0, x0, x1")
	case ast.OpModulo:
		g.buf.Instr("sdiv x2, x0, x1")
		g.buf.Instr("msub x0, x2, x1, x0")
	}
}

// power raises x0 to the low 32 bits of x1 by repeated squaring.
func (g *Generator) power() {
	loop, skip, done := g.labels.Next(), g.labels.Next(), g.labels.Next()
	g.buf.Instr("mov w2, w1")
	g.buf.Instr("mov x3, x0")
	g.buf.Instr("mov x0, #1")
	g.buf.Label(loop)
	g.buf.Instr("cbz x2, %s", done)
	g.buf.Instr("tbz x2, #0, %s", skip)
	g.buf.Instr("mul x0, x0, x3")
	g.buf.Label(skip)
	g.buf.Instr("mul x3, x3, x3")
	g.buf.Instr("lsr x2, x2, #1")
	g.buf.Instr("b %s", loop)
	g.buf.Label(done)
}

func (g *Generator) equality(operator string, left, right native.Type) {
	equal := operator == ast.OpEqual
	if left != right || left == native.Null {
		// Both sides are evaluated; the result is known statically.
		g.buf.Instr("add sp, sp, #16")
		if (left == right) == equal {
			g.buf.Instr("mov x0, #1")
		} else {
			g.buf.Instr("mov x0, #0")
		}
		return
	}
	switch left {
	case native.Float:
		g.floatOperands(left, right)
		g.buf.Instr("fcmp d0, d1")
		g.buf.Instr("cset x0, %s", floatCond[operator])
	case native.String:
		g.intOperands()
		g.buf.Instr("bl %s", g.sym("strcmp"))
		g.buf.Instr("cmp w0, #0")
		g.buf.Instr("cset x0, %s", intCond[operator])
	default:
		g.intOperands()
		g.buf.Instr("cmp x0, x1")
		g.buf.Instr("cset x0, %s", intCond[operator])
	}
}

// ioCall lowers io.print and io.printf. With more than one argument every
// value is saved in its own 16-byte slot before anything is printed, so an
// argument that prints itself does so ahead of the whole line.
func (g *Generator) ioCall(node *ast.Call) (native.Type, error) {
	printOp, err := compiler.ResolveBuiltin(node.Fun)
	if err != nil {
		return native.Null, err
	}
	newline := printOp == op.Print
	if len(node.Args) == 1 {
		typ, err := g.expr(node.Args[0])
		if err != nil {
			return native.Null, err
		}
		g.printValue(typ)
	} else {
		types := make([]native.Type, len(node.Args))
		for i, arg := range node.Args {
			typ, err := g.expr(arg)
			if err != nil {
				return native.Null, err
			}
			g.buf.Instr("str %s, [sp, #-16]!", valueReg(typ))
			types[i] = typ
		}
		for i, typ := range types {
			if newline && i > 0 {
				g.printText("fmt_space")
			}
			g.loadSlot(valueReg(typ), 16*(len(types)-1-i))
			g.printValue(typ)
		}
		g.releaseSlots(16 * len(types))
	}
	if newline {
		g.printText("fmt_newline")
	}
	g.buf.Instr("mov x0, #0")
	return native.Null, nil
}

func valueReg(typ native.Type) string {
	if typ == native.Float {
		return "d0"
	}
	return "x0"
}

// loadSlot reads the stack slot offset bytes above sp into reg.
func (g *Generator) loadSlot(reg string, offset int) {
	if offset <= maxScaledOffset {
		g.buf.Instr("ldr %s, [sp, #%d]", reg, offset)
		return
	}
	g.movImmediate("x10", int64(offset))
	g.buf.Instr("ldr %s, [sp, x10]", reg)
}

// releaseSlots drops size bytes of saved arguments from the stack.
func (g *Generator) releaseSlots(size int) {
	switch {
	case size == 0:
	case size <= 4095:
		g.buf.Instr("add sp, sp, #%d", size)
	default:
		g.movImmediate("x10", int64(size))
		g.buf.Instr("add sp, sp, x10")
	}
}

func (g *Generator) printText(label string) {
	g.address("x0", label)
	g.buf.Instr("bl %s", g.sym("printf"))
}

// printArg calls printf with one variadic argument held in reg.
func (g *Generator) printArg(format, reg string) {
	if g.os == native.MacOS {
		g.buf.Instr("str %s, [sp, #-16]!", reg)
		g.address("x0", format)
		g.buf.Instr("bl %s", g.sym("printf"))
		g.buf.Instr("add sp, sp, #16")
		return
	}
	if reg == "x0" {
		g.buf.Instr("mov x1, x0")
	}
	g.address("x0", format)
	g.buf.Instr("bl %s", g.sym("printf"))
}

func (g *Generator) printValue(typ native.Type) {
	switch typ {
	case native.Int:
		g.printArg("fmt_int", "x0")
	case native.String:
		g.printArg("fmt_str", "x0")
	case native.Float:
		g.printArg("fmt_float", "d0")
	case native.Bool:
		g.buf.Instr("cmp x0, #0")
		g.address("x0", "fmt_bool_false")
		g.address("x1", "fmt_bool_true")
		g.buf.Instr("csel x0, x1, x0, ne")
		g.buf.Instr("bl %s", g.sym("printf"))
	default:
		g.printText("fmt_null")
	}
}

// String implements fmt.Stringer for log output.
func (g *Generator) String() string {
	return fmt.Sprintf("arm64(%s)", g.os)
}
