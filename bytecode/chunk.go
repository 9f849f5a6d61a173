package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Cappucina/ADAN/op"
)

// Chunk is an ordered, immutable instruction sequence produced by one
// compilation pass.
type Chunk struct {
	name         string
	instructions []op.Code
	constants    []any
	names        []string
}

// ChunkParams contains parameters for creating a new Chunk.
type ChunkParams struct {
	Name         string
	Instructions []op.Code
	Constants    []any
	Names        []string
}

// NewChunk creates a new immutable Chunk from the given parameters.
// Input slices are copied.
func NewChunk(params ChunkParams) *Chunk {
	return &Chunk{
		name:         params.Name,
		instructions: copyInstructions(params.Instructions),
		constants:    copyAny(params.Constants),
		names:        copyStrings(params.Names),
	}
}

// Name returns the name of the chunk, used as the listing header.
func (c *Chunk) Name() string {
	return c.name
}

// Len returns the number of instruction words, operands included.
func (c *Chunk) Len() int {
	return len(c.instructions)
}

// WordAt returns the instruction word at the given offset.
func (c *Chunk) WordAt(offset int) op.Code {
	return c.instructions[offset]
}

// InstructionCount returns the number of decoded instructions.
func (c *Chunk) InstructionCount() int {
	count := 0
	iter := NewInstructionIter(c)
	for {
		if _, ok := iter.Next(); !ok {
			return count
		}
		count++
	}
}

// ConstantCount returns the number of constants.
func (c *Chunk) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Chunk) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of variable names.
func (c *Chunk) NameCount() int {
	return len(c.names)
}

// NameAt returns the variable name at the given index.
func (c *Chunk) NameAt(index int) string {
	return c.names[index]
}

// Instructions decodes every instruction in the chunk.
func (c *Chunk) Instructions() []Instruction {
	var result []Instruction
	iter := NewInstructionIter(c)
	for {
		offset := iter.Offset()
		words, ok := iter.Next()
		if !ok {
			return result
		}
		result = append(result, Instruction{
			Offset:   offset,
			Opcode:   words[0],
			Operands: words[1:],
		})
	}
}

// String returns the instruction listing: a header line followed by one
// line per instruction holding its index, name and annotated operand.
func (c *Chunk) String() string {
	var sb strings.Builder
	name := c.name
	if name == "" {
		name = "main"
	}
	fmt.Fprintf(&sb, "== %s ==\n", name)
	for i, instr := range c.Instructions() {
		fmt.Fprintf(&sb, "%04d %s\n", i, c.Describe(instr))
	}
	return sb.String()
}

// Describe formats one instruction with its operand resolved against the
// constant and name tables, e.g. "LOAD_CONST 1" or "STORE_GLOBAL x".
func (c *Chunk) Describe(instr Instruction) string {
	info := op.GetInfo(instr.Opcode)
	name := info.Name
	if name == "" {
		name = fmt.Sprintf("UNKNOWN(%d)", instr.Opcode)
	}
	if len(instr.Operands) == 0 {
		return name
	}
	arg := int(instr.Operands[0])
	switch instr.Opcode {
	case op.LoadConst:
		if arg < len(c.constants) {
			return name + " " + FormatConstant(c.constants[arg])
		}
	case op.LoadGlobal, op.StoreGlobal, op.DeclareLocal, op.DeclareGlobal:
		if arg < len(c.names) {
			return name + " " + c.names[arg]
		}
	case op.BinaryOp:
		return name + " " + op.BinaryOpType(arg).String()
	case op.CompareOp:
		return name + " " + op.CompareOpType(arg).String()
	}
	return name + " " + strconv.Itoa(arg)
}

// FormatConstant renders a constant the way it appears in listings.
func FormatConstant(value any) string {
	switch value := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(value)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// Instruction is a decoded instruction: its word offset, opcode and operands.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Operands []op.Code
}
