// Package dis supports analysis of ADAN bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and uses the
// InstructionIter type from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/Cappucina/ADAN/bytecode"
	"github.com/Cappucina/ADAN/internal/table"
	"github.com/Cappucina/ADAN/op"
	"github.com/fatih/color"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int       `json:"offset"`
	Name       string    `json:"name"`
	Opcode     op.Code   `json:"opcode"`
	Operands   []op.Code `json:"operands"`
	Annotation string    `json:"annotation,omitempty"`
	Constant   any       `json:"constant,omitempty"`
}

var (
	boldColor    = color.New(color.Bold)
	numberColor  = color.New(color.FgYellow)
	stringColor  = color.New(color.FgGreen)
	literalColor = color.New(color.FgMagenta)
	infoColor    = color.New(color.FgHiCyan)
)

// Disassemble returns a parsed representation of the given chunk.
func Disassemble(chunk *bytecode.Chunk) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(chunk)
	for {
		offset := iter.Offset()
		val, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(val[0])
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", val[0], offset)
		}
		var err error
		var constant any
		var annotation string
		switch val[0] {
		case op.LoadGlobal, op.StoreGlobal, op.DeclareLocal, op.DeclareGlobal:
			annotation, err = getName(chunk, int(val[1]))
			if err != nil {
				return nil, err
			}
		case op.BinaryOp:
			annotation = op.BinaryOpType(val[1]).String()
		case op.CompareOp:
			annotation = op.CompareOpType(val[1]).String()
		case op.LoadConst:
			constant, err = getConstantValue(chunk, int(val[1]))
			if err != nil {
				return nil, err
			}
			annotation = bytecode.FormatConstant(constant)
		}
		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     val[0],
			Operands:   val[1:],
			Annotation: annotation,
			Constant:   constant,
		})
	}
	return instructions, nil
}

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	var lines [][]string
	for _, instr := range instructions {
		values := []string{
			fmt.Sprintf("%d", instr.Offset),
			boldColor.Sprint(instr.Name),
			formatOperands(instr.Operands),
		}
		switch c := instr.Constant.(type) {
		case int64, float64:
			values = append(values, numberColor.Sprint(instr.Annotation))
		case string:
			if len(c) > 80 {
				c = c[:77] + "..."
			}
			values = append(values, stringColor.Sprint(bytecode.FormatConstant(c)))
		case bool:
			values = append(values, literalColor.Sprint(instr.Annotation))
		default:
			if instr.Opcode == op.LoadConst {
				values = append(values, literalColor.Sprint(instr.Annotation))
			} else if instr.Annotation != "" {
				values = append(values, infoColor.Sprint(instr.Annotation))
			} else {
				values = append(values, "")
			}
		}
		lines = append(lines, values)
	}

	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// Listing returns the plain instruction listing of a chunk, one numbered
// instruction per line.
func Listing(chunk *bytecode.Chunk) string {
	return chunk.String()
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}

func getConstantValue(chunk *bytecode.Chunk, index int) (any, error) {
	if chunk.ConstantCount() <= index {
		return nil, fmt.Errorf("constant index out of range: %d", index)
	}
	return chunk.ConstantAt(index), nil
}

func getName(chunk *bytecode.Chunk, index int) (string, error) {
	if chunk.NameCount() <= index {
		return "", fmt.Errorf("name index out of range: %d", index)
	}
	return chunk.NameAt(index), nil
}
