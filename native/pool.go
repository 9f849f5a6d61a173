package native

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StringLiteral is a string constant placed in the data section.
type StringLiteral struct {
	Label string
	Value string
}

// FloatLiteral is a float constant placed in the data section.
type FloatLiteral struct {
	Label string
	Value float64
}

// LiteralPool collects the string and float constants of one compilation.
// Equal values share one label. Entries keep their insertion order so the
// output is deterministic.
type LiteralPool struct {
	labels      *Labels
	strings     []StringLiteral
	floats      []FloatLiteral
	stringIndex map[string]string
	floatIndex  map[uint64]string
}

// NewLiteralPool returns an empty pool drawing labels from labels.
func NewLiteralPool(labels *Labels) *LiteralPool {
	return &LiteralPool{
		labels:      labels,
		stringIndex: map[string]string{},
		floatIndex:  map[uint64]string{},
	}
}

// String returns the label holding s, adding it on first use.
func (p *LiteralPool) String(s string) string {
	if label, ok := p.stringIndex[s]; ok {
		return label
	}
	label := p.labels.Next()
	p.stringIndex[s] = label
	p.strings = append(p.strings, StringLiteral{Label: label, Value: s})
	return label
}

// Float returns the label holding f, adding it on first use. Values are
// keyed by their bit pattern, so 0.0 and -0.0 get separate entries.
func (p *LiteralPool) Float(f float64) string {
	bits := math.Float64bits(f)
	if label, ok := p.floatIndex[bits]; ok {
		return label
	}
	label := p.labels.Next()
	p.floatIndex[bits] = label
	p.floats = append(p.floats, FloatLiteral{Label: label, Value: f})
	return label
}

// Strings returns the string entries in insertion order.
func (p *LiteralPool) Strings() []StringLiteral {
	return p.strings
}

// Floats returns the float entries in insertion order.
func (p *LiteralPool) Floats() []FloatLiteral {
	return p.floats
}

// Empty reports whether the pool holds no entries.
func (p *LiteralPool) Empty() bool {
	return len(p.strings) == 0 && len(p.floats) == 0
}

// FormatFloat renders f as an assembler floating point constant. NASM reads
// a number without a decimal point as an integer, so one is always present,
// e.g. "2.0" or "1.0e+21". Infinities and NaN have no portable spelling; for those
// ok is false and the caller emits the raw bits from FloatBits instead.
func FormatFloat(f float64) (text string, ok bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.Contains(s, ".") {
		return s, true
	}
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:], true
	}
	return s + ".0", true
}

// FloatBits returns the IEEE-754 bit pattern of f as a hex literal.
func FloatBits(f float64) string {
	return fmt.Sprintf("0x%016x", math.Float64bits(f))
}
