// Package ast defines the expression tree consumed by the ADAN compiler and
// native code generators. Trees are produced by an external parser, either
// directly as Go values or through the JSON/YAML interchange format handled
// by Decode and Encode.
package ast

// Node represents a portion of the expression tree.
type Node interface {
	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string

	exprNode()
}

// Operator tags carried by Infix nodes.
const (
	OpAdd         = "+"
	OpSubtract    = "-"
	OpMultiply    = "*"
	OpDivide      = "/"
	OpModulo      = "%"
	OpPower       = "^"
	OpEqual       = "=="
	OpNotEqual    = "!="
	OpLess        = "<"
	OpLessEqual   = "<="
	OpGreater     = ">"
	OpGreaterEq   = ">="
	OpAnd         = "&&"
	OpOr          = "||"
	OpConcatenate = ".."
	OpAssign      = "->"
)

var operators = map[string]bool{
	OpAdd: true, OpSubtract: true, OpMultiply: true, OpDivide: true,
	OpModulo: true, OpPower: true, OpEqual: true, OpNotEqual: true,
	OpLess: true, OpLessEqual: true, OpGreater: true, OpGreaterEq: true,
	OpAnd: true, OpOr: true, OpConcatenate: true, OpAssign: true,
}

// IsOperator reports whether op is a known Infix operator tag.
func IsOperator(op string) bool {
	return operators[op]
}
