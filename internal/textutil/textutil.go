// Package textutil cleans model output before it is treated as source code.
package textutil

import "strings"

// leading phrases models like to emit before the code block, in either of
// the two languages the corpus models answer in.
var preamblePrefixes = []string{
	"Here ",
	"Modified ",
	"Вот ",
	"Изменённый ",
}

// StripCodeFence removes an enclosing markdown code fence, preferring a
// ```python fence when present. Text without fences is returned unchanged.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)

	if idx := strings.Index(s, "```python"); idx >= 0 {
		s = s[idx+len("```python"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}

	if strings.Contains(s, "```") {
		parts := strings.SplitN(s, "```", 3)
		if len(parts) >= 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return s
}

// StripPreamble drops lines that are pure natural-language lead-in rather
// than code.
func StripPreamble(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isPreamble(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isPreamble(line string) bool {
	for _, prefix := range preamblePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
