package ast

import (
	"strconv"
)

// Nil is an expression node that holds a null literal.
type Nil struct{}

func (x *Nil) exprNode() {}

func (x *Nil) String() string { return "null" }

// Bool is an expression node that holds a boolean literal.
type Bool struct {
	Value bool
}

func (x *Bool) exprNode() {}

func (x *Bool) String() string { return strconv.FormatBool(x.Value) }

// Int is an expression node that holds an integer literal.
type Int struct {
	Value int64
}

func (x *Int) exprNode() {}

func (x *Int) String() string { return strconv.FormatInt(x.Value, 10) }

// Float is an expression node that holds a floating point literal.
type Float struct {
	Value float64
}

func (x *Float) exprNode() {}

func (x *Float) String() string { return strconv.FormatFloat(x.Value, 'g', -1, 64) }

// String is an expression node that holds a string literal.
type String struct {
	Value string
}

func (x *String) exprNode() {}

func (x *String) String() string { return strconv.Quote(x.Value) }
