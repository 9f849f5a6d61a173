package native

import (
	"strconv"
	"strings"
)

// NASMBytes renders s as the operand list of a NASM "db" directive, without
// the terminating zero. NASM double quoted strings have no escapes, so
// quotes and non-printable bytes are written as numbers:
//
//	say "hi"\n  ->  "say ", 34, "hi", 34, 10
//
// The empty string renders as "".
func NASMBytes(s string) string {
	var parts []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, `"`+run.String()+`"`)
			run.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c < 0x7f && c != '"' {
			run.WriteByte(c)
			continue
		}
		flush()
		parts = append(parts, strconv.Itoa(int(c)))
	}
	flush()
	return strings.Join(parts, ", ")
}

// GASString renders s as a quoted GNU as string literal.
func GASString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if c < 0x20 || c >= 0x7f {
				sb.WriteByte('\\')
				sb.WriteString(strconv.FormatInt(int64(c)|0o1000, 8)[1:])
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
