package bytecode

import "github.com/Cappucina/ADAN/op"

// Stats contains statistics about a compiled chunk.
type Stats struct {
	// InstructionCount is the number of decoded instructions.
	InstructionCount int `json:"instructions"`

	// WordCount is the number of instruction words, operands included.
	WordCount int `json:"words"`

	// ConstantCount is the number of entries in the constant table.
	ConstantCount int `json:"constants"`

	// NameCount is the number of distinct variable names.
	NameCount int `json:"names"`

	// MaxScopeDepth is the deepest block nesting, 0 for flat programs.
	MaxScopeDepth int `json:"max_scope_depth"`
}

// Stats returns statistics about this chunk.
func (c *Chunk) Stats() Stats {
	stats := Stats{
		WordCount:     len(c.instructions),
		ConstantCount: len(c.constants),
		NameCount:     len(c.names),
	}
	depth := 0
	for _, instr := range c.Instructions() {
		stats.InstructionCount++
		switch instr.Opcode {
		case op.EnterScope:
			depth++
			stats.MaxScopeDepth = max(stats.MaxScopeDepth, depth)
		case op.ExitScope:
			depth--
		}
	}
	return stats
}
