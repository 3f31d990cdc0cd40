package infrastructure

import "strings"

// RenderCommandLine renders a binary and its arguments as a copy-pasteable
// shell line for logs. exec.Command passes arguments directly, so this is
// display-only.
func RenderCommandLine(binary string, args ...string) string {
	var b strings.Builder
	b.WriteString(quoteArg(binary))
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(quoteArg(arg))
	}
	return b.String()
}

func quoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\r'\"$`\\!*?[](){}|;<>&~#%") {
		return s
	}
	// Single-quote, with embedded single quotes spliced out as '"'"'.
	var b strings.Builder
	b.WriteByte('\'')
	for _, c := range s {
		if c == '\'' {
			b.WriteString(`'"'"'`)
		} else {
			b.WriteRune(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
