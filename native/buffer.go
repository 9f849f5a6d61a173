package native

import (
	"fmt"
	"strings"
)

// Buffer accumulates assembly text one line at a time.
type Buffer struct {
	sb      strings.Builder
	comment string
}

// NewBuffer returns an empty Buffer whose comments start with the given
// prefix, e.g. ";" for NASM or "//" for GNU as on Linux AArch64.
func NewBuffer(commentPrefix string) *Buffer {
	return &Buffer{comment: commentPrefix}
}

// Instr writes an indented instruction.
func (b *Buffer) Instr(format string, args ...any) {
	b.sb.WriteString("    ")
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Label writes a label definition.
func (b *Buffer) Label(name string) {
	b.sb.WriteString(name)
	b.sb.WriteString(":\n")
}

// Directive writes an unindented line such as a section directive.
func (b *Buffer) Directive(format string, args ...any) {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Comment writes an indented comment line.
func (b *Buffer) Comment(format string, args ...any) {
	b.sb.WriteString("    ")
	b.sb.WriteString(b.comment)
	b.sb.WriteByte(' ')
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Header writes an unindented comment line.
func (b *Buffer) Header(format string, args ...any) {
	b.sb.WriteString(b.comment)
	b.sb.WriteByte(' ')
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Blank writes an empty line.
func (b *Buffer) Blank() {
	b.sb.WriteByte('\n')
}

// String returns the accumulated text.
func (b *Buffer) String() string {
	return b.sb.String()
}

// Labels hands out unique labels L0, L1, ... for one compilation. Literal
// pool entries and branch targets share the sequence.
type Labels struct {
	next int
}

// Next returns a fresh label.
func (l *Labels) Next() string {
	label := fmt.Sprintf("L%d", l.next)
	l.next++
	return label
}

// Reset restarts the sequence at L0.
func (l *Labels) Reset() {
	l.next = 0
}
