package bytecode

import "github.com/Cappucina/ADAN/op"

// InstructionIter iterates over instructions in a Chunk.
type InstructionIter struct {
	chunk *Chunk
	pos   int
}

// NewInstructionIter creates a new instruction iterator for the given chunk.
func NewInstructionIter(chunk *Chunk) *InstructionIter {
	return &InstructionIter{chunk: chunk}
}

// Offset returns the word offset of the next instruction.
func (i *InstructionIter) Offset() int {
	return i.pos
}

// Next returns the next instruction and its operands.
// Returns false when there are no more instructions.
func (i *InstructionIter) Next() ([]op.Code, bool) {
	if i.pos >= i.chunk.Len() {
		return nil, false
	}
	opcode := i.chunk.WordAt(i.pos)
	i.pos++

	info := op.GetInfo(opcode)
	if info.OperandCount == 0 {
		return []op.Code{opcode}, true
	}
	instr := make([]op.Code, info.OperandCount+1)
	instr[0] = opcode

	for j := 0; j < info.OperandCount && i.pos < i.chunk.Len(); j++ {
		instr[j+1] = i.chunk.WordAt(i.pos)
		i.pos++
	}
	return instr, true
}
