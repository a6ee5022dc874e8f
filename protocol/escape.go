package protocol

import "strings"

// Escape encodes free text for inclusion in a command argument field.
// `\` becomes `\b` and `:` becomes `\d`, so escaped text never contains
// a bare field separator.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\:") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			b.WriteString(`\b`)
		case ':':
			b.WriteString(`\d`)
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}

// Unescape decodes free text received in a command argument field.
// `\d` becomes `:`, `\b` becomes `\` and `\n` becomes a literal newline.
//
// Escape never emits `\n`, but the reference server does, so we decode it.
// A `\` followed by anything else is not an escape introducer and is
// copied through unchanged.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}

		switch s[i+1] {
		case 'd':
			b.WriteByte(':')
			i++
		case 'b':
			b.WriteByte('\\')
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		default:
			b.WriteByte(s[i])
		}
	}

	return b.String()
}
