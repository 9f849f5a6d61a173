package ast

import (
	"bytes"
	"strings"
)

// Ident is an expression node that refers to a variable by name.
type Ident struct {
	Name string
}

func (x *Ident) exprNode() {}

func (x *Ident) String() string { return x.Name }

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y" and "total -> 5".
type Infix struct {
	X  Node   // left operand
	Op string // operator: "+", "-", "->", "..", etc.
	Y  Node   // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(x.X.String())
	out.WriteString(" " + x.Op + " ")
	out.WriteString(x.Y.String())
	out.WriteString(")")
	return out.String()
}

// Call is an expression node that describes the invocation of a function.
type Call struct {
	Fun  Node   // function expression
	Args []Node // function arguments
}

func (x *Call) exprNode() {}

func (x *Call) String() string {
	var out bytes.Buffer
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	out.WriteString(x.Fun.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")
	return out.String()
}

// GetAttr is an expression node that describes the access of a member of a
// module, such as "io.print" or "io:print".
type GetAttr struct {
	X    Node   // module expression
	Sep  string // "." or ":"
	Attr string // member name
}

func (x *GetAttr) exprNode() {}

func (x *GetAttr) String() string {
	sep := x.Sep
	if sep == "" {
		sep = "."
	}
	return x.X.String() + sep + x.Attr
}

// Module returns the module name when X is a plain identifier.
func (x *GetAttr) Module() (string, bool) {
	ident, ok := x.X.(*Ident)
	if !ok {
		return "", false
	}
	return ident.Name, true
}

// NewIOCall returns a call to the io module member with the given name.
func NewIOCall(name string, args ...Node) *Call {
	return &Call{
		Fun:  &GetAttr{X: &Ident{Name: "io"}, Sep: ".", Attr: name},
		Args: args,
	}
}

// Index is an expression node that describes indexing into a value, such as
// "x[0]". The parser produces it but no backend supports it.
type Index struct {
	X     Node // expression being indexed
	Index Node // index expression
}

func (x *Index) exprNode() {}

func (x *Index) String() string {
	return x.X.String() + "[" + x.Index.String() + "]"
}

// Block is a sequence of expressions. Its value is null.
type Block struct {
	Exprs []Node
}

func (x *Block) exprNode() {}

func (x *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for i, e := range x.Exprs {
		if i > 0 {
			out.WriteString("; ")
		}
		out.WriteString(e.String())
	}
	out.WriteString(" }")
	return out.String()
}

// Param is a named, typed parameter of a Program.
type Param struct {
	Name string
	Type string
}

// Program is the top-level wrapper emitted by the parser for a named entry
// point. Its parameters are not bound by any backend.
type Program struct {
	Name   string
	Params []*Param
	Body   *Block
}

func (x *Program) exprNode() {}

func (x *Program) String() string {
	params := make([]string, 0, len(x.Params))
	for _, p := range x.Params {
		if p.Type != "" {
			params = append(params, p.Name+": "+p.Type)
		} else {
			params = append(params, p.Name)
		}
	}
	body := "{ }"
	if x.Body != nil {
		body = x.Body.String()
	}
	return "program " + x.Name + "(" + strings.Join(params, ", ") + ") " + body
}

// Scope selects where a Var declaration binds its name.
type Scope string

const (
	Local  Scope = "local"
	Global Scope = "global"
)

// Var declares a variable in the innermost scope (Local) or the outermost
// scope (Global) and evaluates to the assigned value.
type Var struct {
	Scope Scope
	Name  string
	Value Node
}

func (x *Var) exprNode() {}

func (x *Var) String() string {
	return string(x.Scope) + " " + x.Name + " -> " + x.Value.String()
}
