// Package op defines opcodes used by the ADAN compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop  Code = 1
	Halt Code = 2

	// Load
	LoadGlobal Code = 23
	LoadConst  Code = 24

	// Store
	StoreGlobal Code = 33

	// Operations
	BinaryOp  Code = 40
	CompareOp Code = 41

	// Stack
	PopTop Code = 72

	// Output
	Print       Code = 100
	PrintFormat Code = 101

	// Scopes
	EnterScope    Code = 110
	ExitScope     Code = 111
	DeclareLocal  Code = 112
	DeclareGlobal Code = 113
)

// BinaryOpType describes a type of binary operation, as in an operation that
// takes two operands. For example, addition, subtraction, multiplication, etc.
type BinaryOpType uint16

const (
	Add         BinaryOpType = 1
	Subtract    BinaryOpType = 2
	Multiply    BinaryOpType = 3
	Divide      BinaryOpType = 4
	Modulo      BinaryOpType = 5
	And         BinaryOpType = 6
	Or          BinaryOpType = 7
	Power       BinaryOpType = 9
	Concatenate BinaryOpType = 14
)

// String returns a string representation of the binary operation.
// For example "+" for addition.
func (bop BinaryOpType) String() string {
	switch bop {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	case And:
		return "&&"
	case Or:
		return "||"
	case Power:
		return "^"
	case Concatenate:
		return ".."
	default:
		return ""
	}
}

// CompareOpType describes a type of comparison operation. For example, less
// than, greater than, equal, etc.
type CompareOpType uint16

const (
	LessThan           CompareOpType = 1
	LessThanOrEqual    CompareOpType = 2
	Equal              CompareOpType = 3
	NotEqual           CompareOpType = 4
	GreaterThan        CompareOpType = 5
	GreaterThanOrEqual CompareOpType = 6
)

// String returns a string representation of the comparison operation.
// For example "<" for less than.
func (cop CompareOpType) String() string {
	switch cop {
	case LessThan:
		return "<"
	case LessThanOrEqual:
		return "<="
	case Equal:
		return "=="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case GreaterThanOrEqual:
		return ">="
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{BinaryOp, "BINARY_OP", 1},
		{CompareOp, "COMPARE_OP", 1},
		{DeclareGlobal, "DECLARE_GLOBAL", 1},
		{DeclareLocal, "DECLARE_LOCAL", 1},
		{EnterScope, "ENTER_SCOPE", 0},
		{ExitScope, "EXIT_SCOPE", 0},
		{Halt, "HALT", 0},
		{LoadConst, "LOAD_CONST", 1},
		{LoadGlobal, "LOAD_GLOBAL", 1},
		{Nop, "NOP", 0},
		{PopTop, "POP_TOP", 0},
		{Print, "PRINT", 0},
		{PrintFormat, "PRINT_FORMAT", 0},
		{StoreGlobal, "STORE_GLOBAL", 1},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}
