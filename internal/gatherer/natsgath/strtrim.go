package natsgath

import (
	"strings"
)

// trimStrToRect bounds captured output to maxHeight lines of maxWidth runs of
// bytes each, so a chatty test-runner cannot blow up the message size.
func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	truncated := false
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		truncated = true
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if len(line) > maxWidth {
			b.WriteString(line[:maxWidth])
			b.WriteString("[...]")
		} else {
			b.WriteString(line)
		}
	}
	if truncated {
		b.WriteString("\n[...]")
	}
	return b.String()
}
