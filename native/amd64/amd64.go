// Package amd64 generates x86-64 assembly in NASM syntax for the System V
// calling convention used on Linux and macOS.
//
// Integer, boolean, null and string values live in rax; floats live in xmm0.
// Binary operators push the left operand, evaluate the right one and then
// combine the two. The generator counts its own pushes so that rsp is
// 16-byte aligned at every call into the C library.
package amd64

import (
	"fmt"

	"github.com/Cappucina/ADAN/ast"
	"github.com/Cappucina/ADAN/compiler"
	"github.com/Cappucina/ADAN/errz"
	"github.com/Cappucina/ADAN/native"
	"github.com/Cappucina/ADAN/op"
)

const storage = "LVAR_STORAGE"

var caps = native.Capabilities{StringConcat: true}

var externs = []string{"printf", "exit", "strlen", "malloc", "strcpy", "strcat", "strcmp"}

// Generator compiles expressions to NASM source. A Generator may be reused
// but not shared between goroutines.
type Generator struct {
	os      native.OS
	opts    native.Options
	buf     *native.Buffer
	labels  native.Labels
	pool    *native.LiteralPool
	symbols *native.SymbolTable
	depth   int // 8-byte pushes since the prologue
}

// New returns a generator for x86-64 on the given operating system.
func New(os native.OS, opts ...native.Option) *Generator {
	return &Generator{os: os, opts: native.NewOptions(opts...)}
}

// Generate compiles the top-level expressions into a complete program
// whose entry point runs them in order and exits with status zero.
func (g *Generator) Generate(exprs []ast.Node) (string, error) {
	g.buf = native.NewBuffer(";")
	g.labels.Reset()
	g.pool = native.NewLiteralPool(&g.labels)
	g.symbols = native.NewSymbolTable(g.opts.LegacySlots)
	g.depth = 0

	for _, expr := range exprs {
		if _, err := g.expr(expr); err != nil {
			return "", err
		}
	}
	body := g.buf

	out := native.NewBuffer(";")
	g.writePrologue(out)
	tail := native.NewBuffer(";")
	g.writeEpilogue(tail)
	return out.String() + body.String() + tail.String(), nil
}

// sym decorates a C symbol name for the target's object format.
func (g *Generator) sym(name string) string {
	if g.os == native.MacOS {
		return "_" + name
	}
	return name
}

func (g *Generator) writePrologue(b *native.Buffer) {
	abi := "Linux System V ABI"
	if g.os == native.MacOS {
		abi = "macOS System V ABI"
	}
	b.Header("ADAN compiled to x86-64 assembly (%s)", abi)
	b.Blank()
	b.Directive("section .data")
	b.Instr(`fmt_int: db "%%ld", 0`)
	b.Instr(`fmt_float: db "%%.15g", 0`)
	b.Instr(`fmt_str: db "%%s", 0`)
	b.Instr(`fmt_bool_true: db "true", 0`)
	b.Instr(`fmt_bool_false: db "false", 0`)
	b.Instr(`fmt_null: db "null", 0`)
	b.Instr(`fmt_newline: db 10, 0`)
	b.Instr(`fmt_space: db " ", 0`)
	b.Blank()
	b.Directive("section .bss")
	b.Instr("%s: resq %d", storage, g.symbols.Slots())
	b.Blank()
	b.Directive("section .text")
	b.Instr("global %s", g.sym("main"))
	for _, name := range externs {
		b.Instr("extern %s", g.sym(name))
	}
	b.Blank()
	b.Label(g.sym("main"))
	b.Instr("push rbp")
	b.Instr("mov rbp, rsp")
	b.Blank()
}

func (g *Generator) writeEpilogue(b *native.Buffer) {
	b.Blank()
	b.Comment("exit(0)")
	b.Instr("xor edi, edi")
	b.Instr("call %s", g.sym("exit"))
	b.Blank()
	if !g.pool.Empty() {
		b.Directive("section .data")
		for _, lit := range g.pool.Strings() {
			if lit.Value == "" {
				b.Instr("%s: db 0", lit.Label)
			} else {
				b.Instr("%s: db %s, 0", lit.Label, native.NASMBytes(lit.Value))
			}
		}
		for _, lit := range g.pool.Floats() {
			if text, ok := native.FormatFloat(lit.Value); ok {
				b.Instr("%s: dq %s", lit.Label, text)
			} else {
				b.Instr("%s: dq %s", lit.Label, native.FloatBits(lit.Value))
			}
		}
		b.Blank()
	}
	if g.os == native.Linux {
		b.Directive("section .note.GNU-stack noalloc noexec nowrite progbits")
	}
}

func (g *Generator) expr(node ast.Node) (native.Type, error) {
	switch node := node.(type) {
	case *ast.Nil:
		g.buf.Instr("xor eax, eax")
		return native.Null, nil
	case *ast.Bool:
		if node.Value {
			g.buf.Instr("mov eax, 1")
		} else {
			g.buf.Instr("xor eax, eax")
		}
		return native.Bool, nil
	case *ast.Int:
		g.buf.Instr("mov rax, %d", node.Value)
		return native.Int, nil
	case *ast.Float:
		g.buf.Instr("movsd xmm0, [rel %s]", g.pool.Float(node.Value))
		return native.Float, nil
	case *ast.String:
		g.buf.Instr("lea rax, [rel %s]", g.pool.String(node.Value))
		return native.String, nil
	case *ast.Ident:
		sym, err := g.symbols.Read(node.Name)
		if err != nil {
			return native.Null, err
		}
		g.load(sym)
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
		g.store(sym)
		return typ, nil
	case *ast.Block:
		g.symbols.PushScope()
		for _, expr := range node.Exprs {
			if _, err := g.expr(expr); err != nil {
				return native.Null, err
			}
		}
		g.symbols.PopScope()
		g.buf.Instr("xor eax, eax")
		return native.Null, nil
	case *ast.Program:
		if node.Body != nil {
			for _, expr := range node.Body.Exprs {
				if _, err := g.expr(expr); err != nil {
					return native.Null, err
				}
			}
		}
		g.buf.Instr("xor eax, eax")
		return native.Null, nil
	case nil:
		return native.Null, errz.CompileErrorf(errz.ErrUnsupportedExpression, "missing expression")
	default:
		return native.Null, errz.CompileErrorf(errz.ErrUnsupportedExpression,
			"unsupported expression: %s", node.String())
	}
}

func (g *Generator) load(sym *native.Symbol) {
	if sym.Type == native.Float {
		g.buf.Instr("movsd xmm0, [rel %s + %d]", storage, sym.Offset())
	} else {
		g.buf.Instr("mov rax, [rel %s + %d]", storage, sym.Offset())
	}
}

func (g *Generator) store(sym *native.Symbol) {
	if sym.Type == native.Float {
		g.buf.Instr("movsd [rel %s + %d], xmm0", storage, sym.Offset())
	} else {
		g.buf.Instr("mov [rel %s + %d], rax", storage, sym.Offset())
	}
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
	g.store(sym)
	return typ, nil
}

func (g *Generator) push() {
	g.buf.Instr("push rax")
	g.depth++
}

func (g *Generator) pop(reg string) {
	g.buf.Instr("pop %s", reg)
	g.depth--
}

// callC calls a C library function, padding the stack when an odd number of
// values is pushed.
func (g *Generator) callC(name string) {
	if g.depth%2 == 0 {
		g.buf.Instr("call %s", g.sym(name))
		return
	}
	g.buf.Instr("sub rsp, 8")
	g.buf.Instr("call %s", g.sym(name))
	g.buf.Instr("add rsp, 8")
}

func (g *Generator) infix(node *ast.Infix) (native.Type, error) {
	left, err := g.expr(node.X)
	if err != nil {
		return native.Null, err
	}
	if left == native.Float {
		g.buf.Instr("movq rax, xmm0")
	}
	g.push()
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
		g.equality(node.Op == ast.OpEqual, left, right)
	case ast.OpConcatenate:
		g.concat()
	case ast.OpAdd:
		if result == native.String {
			g.concat()
		} else {
			g.arithmetic(node.Op, left, right, result)
		}
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEq:
		if left == native.Float || right == native.Float {
			g.floatOperands(left, right)
			g.floatCompare(node.Op)
		} else {
			g.intOperands()
			g.buf.Instr("cmp rax, rcx")
			g.buf.Instr("%s al", intSetcc[node.Op])
			g.buf.Instr("movzx eax, al")
		}
	case ast.OpAnd, ast.OpOr:
		g.intOperands()
		g.buf.Instr("test rax, rax")
		g.buf.Instr("setnz al")
		g.buf.Instr("test rcx, rcx")
		g.buf.Instr("setnz cl")
		if node.Op == ast.OpAnd {
			g.buf.Instr("and al, cl")
		} else {
			g.buf.Instr("or al, cl")
		}
		g.buf.Instr("movzx eax, al")
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

var intSetcc = map[string]string{
	ast.OpEqual:     "sete",
	ast.OpNotEqual:  "setne",
	ast.OpLess:      "setl",
	ast.OpLessEqual: "setle",
	ast.OpGreater:   "setg",
	ast.OpGreaterEq: "setge",
}

// intOperands pops the left operand into rax with the right one in rcx.
func (g *Generator) intOperands() {
	g.buf.Instr("mov rcx, rax")
	g.pop("rax")
}

// floatOperands pops the left operand into xmm0 with the right one in xmm1,
// converting integers to double.
func (g *Generator) floatOperands(left, right native.Type) {
	if right == native.Float {
		g.buf.Instr("movapd xmm1, xmm0")
	} else {
		g.buf.Instr("cvtsi2sd xmm1, rax")
	}
	g.pop("rax")
	if left == native.Float {
		g.buf.Instr("movq xmm0, rax")
	} else {
		g.buf.Instr("cvtsi2sd xmm0, rax")
	}
}

func (g *Generator) arithmetic(operator string, left, right, result native.Type) {
	if result == native.Float {
		g.floatOperands(left, right)
		switch operator {
		case ast.OpAdd:
			g.buf.Instr("addsd xmm0, xmm1")
		case ast.OpSubtract:
			g.buf.Instr("subsd xmm0, xmm1")
		case ast.OpMultiply:
			g.buf.Instr("mulsd xmm0, xmm1")
		case ast.OpDivide:
			g.buf.Instr("divsd xmm0, xmm1")
		}
		return
	}
	g.intOperands()
	switch operator {
	case ast.OpAdd:
		g.buf.Instr("add rax, rcx")
	case ast.OpSubtract:
		g.buf.Instr("sub rax, rcx")
	case ast.OpMultiply:
		g.buf.Instr("imul rax, rcx")
	case ast.OpDivide:
		g.buf.Instr("cqo")
		g.buf.Instr("idiv rcx")
	case ast.OpModulo:
		g.buf.Instr("cqo")
		g.buf.Instr("idiv rcx")
		g.buf.Instr("mov rax, rdx")
	}
}

// power raises rax to the low 32 bits of rcx by repeated squaring.
func (g *Generator) power() {
	loop, skip, done := g.labels.Next(), g.labels.Next(), g.labels.Next()
	g.buf.Instr("mov r8, rax")
	g.buf.Instr("mov ecx, ecx")
	g.buf.Instr("mov eax, 1")
	g.buf.Label(loop)
	g.buf.Instr("test rcx, rcx")
	g.buf.Instr("jz %s", done)
	g.buf.Instr("test cl, 1")
	g.buf.Instr("jz %s", skip)
	g.buf.Instr("imul rax, r8")
	g.buf.Label(skip)
	g.buf.Instr("imul r8, r8")
	g.buf.Instr("shr rcx, 1")
	g.buf.Instr("jmp %s", loop)
	g.buf.Label(done)
}

// floatCompare sets rax from xmm0 <op> xmm1. ucomisd reports unordered
// operands as below-and-equal, so NaN compares false everywhere but !=.
func (g *Generator) floatCompare(operator string) {
	switch operator {
	case ast.OpLess:
		g.buf.Instr("ucomisd xmm1, xmm0")
		g.buf.Instr("seta al")
	case ast.OpLessEqual:
		g.buf.Instr("ucomisd xmm1, xmm0")
		g.buf.Instr("setae al")
	case ast.OpGreater:
		g.buf.Instr("ucomisd xmm0, xmm1")
		g.buf.Instr("seta al")
	case ast.OpGreaterEq:
		g.buf.Instr("ucomisd xmm0, xmm1")
		g.buf.Instr("setae al")
	case ast.OpEqual:
		g.buf.Instr("ucomisd xmm0, xmm1")
		g.buf.Instr("sete al")
		g.buf.Instr("setnp cl")
		g.buf.Instr("and al, cl")
	case ast.OpNotEqual:
		g.buf.Instr("ucomisd xmm0, xmm1")
		g.buf.Instr("setne al")
		g.buf.Instr("setp cl")
		g.buf.Instr("or al, cl")
	}
	g.buf.Instr("movzx eax, al")
}

func (g *Generator) equality(equal bool, left, right native.Type) {
	operator := ast.OpNotEqual
	if equal {
		operator = ast.OpEqual
	}
	if left != right || left == native.Null {
		// Both sides are evaluated; the result is known statically.
		g.pop("rcx")
		if (left == right) == equal {
			g.buf.Instr("mov eax, 1")
		} else {
			g.buf.Instr("xor eax, eax")
		}
		return
	}
	switch left {
	case native.Float:
		g.floatOperands(left, right)
		g.floatCompare(operator)
	case native.String:
		g.buf.Instr("mov rsi, rax")
		g.pop("rdi")
		g.callC("strcmp")
		g.buf.Instr("test eax, eax")
		g.buf.Instr("%s al", intSetcc[operator])
		g.buf.Instr("movzx eax, al")
	default:
		g.intOperands()
		g.buf.Instr("cmp rax, rcx")
		g.buf.Instr("%s al", intSetcc[operator])
		g.buf.Instr("movzx eax, al")
	}
}

// concat joins the string on the stack with the string in rax into a newly
// allocated buffer.
func (g *Generator) concat() {
	g.push()
	g.buf.Instr("mov rdi, [rsp + 8]")
	g.callC("strlen")
	g.push()
	g.buf.Instr("mov rdi, [rsp + 8]")
	g.callC("strlen")
	g.buf.Instr("add rax, [rsp]")
	g.buf.Instr("lea rdi, [rax + 1]")
	g.callC("malloc")
	g.buf.Instr("mov [rsp], rax")
	g.buf.Instr("mov rdi, rax")
	g.buf.Instr("mov rsi, [rsp + 16]")
	g.callC("strcpy")
	g.buf.Instr("mov rdi, [rsp]")
	g.buf.Instr("mov rsi, [rsp + 8]")
	g.callC("strcat")
	g.pop("rax")
	g.buf.Instr("add rsp, 16")
	g.depth -= 2
}

// ioCall lowers io.print and io.printf. With more than one argument every
// value is pushed before anything is printed, so an argument that prints
// itself does so ahead of the whole line.
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
			if typ == native.Float {
				g.buf.Instr("movq rax, xmm0")
			}
			g.push()
			types[i] = typ
		}
		for i, typ := range types {
			if newline && i > 0 {
				g.printText("fmt_space")
			}
			offset := 8 * (len(types) - 1 - i)
			if typ == native.Float {
				g.buf.Instr("movsd xmm0, [rsp + %d]", offset)
			} else {
				g.buf.Instr("mov rax, [rsp + %d]", offset)
			}
			g.printValue(typ)
		}
		if len(types) > 0 {
			g.buf.Instr("add rsp, %d", 8*len(types))
			g.depth -= len(types)
		}
	}
	if newline {
		g.printText("fmt_newline")
	}
	g.buf.Instr("xor eax, eax")
	return native.Null, nil
}

func (g *Generator) printText(label string) {
	g.buf.Instr("lea rdi, [rel %s]", label)
	g.buf.Instr("xor eax, eax")
	g.callC("printf")
}

func (g *Generator) printValue(typ native.Type) {
	switch typ {
	case native.Int, native.String:
		format := "fmt_int"
		if typ == native.String {
			format = "fmt_str"
		}
		g.buf.Instr("mov rsi, rax")
		g.buf.Instr("lea rdi, [rel %s]", format)
		g.buf.Instr("xor eax, eax")
		g.callC("printf")
	case native.Float:
		g.buf.Instr("lea rdi, [rel fmt_float]")
		g.buf.Instr("mov eax, 1")
		g.callC("printf")
	case native.Bool:
		g.buf.Instr("test rax, rax")
		g.buf.Instr("lea rdi, [rel fmt_bool_false]")
		g.buf.Instr("lea rsi, [rel fmt_bool_true]")
		g.buf.Instr("cmovnz rdi, rsi")
		g.buf.Instr("xor eax, eax")
		g.callC("printf")
	default:
		g.printText("fmt_null")
	}
}

// String implements fmt.Stringer for log output.
func (g *Generator) String() string {
	return fmt.Sprintf("amd64(%s)", g.os)
}
