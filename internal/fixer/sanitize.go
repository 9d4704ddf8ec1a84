package fixer

import "strings"

// EncodingDecl is the declaration every generated program must start with.
const EncodingDecl = "# -*- coding: utf-8 -*-"

// Sanitize normalizes source text so the sandbox never chokes on stray
// bytes: every byte outside printable ASCII (plus newline, tab, carriage
// return) is blanked, duplicate encoding declarations are removed, and
// exactly one declaration is placed at the very top. Idempotent.
func Sanitize(code string) string {
	if code == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if (r >= 32 && r <= 126) || r == '\n' || r == '\t' || r == '\r' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	var kept []string
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.Contains(line, EncodingDecl) {
			// Strip only the declaration itself; code sharing the line stays.
			line = strings.TrimRight(strings.ReplaceAll(line, EncodingDecl, ""), " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
		}
		kept = append(kept, line)
	}

	return EncodingDecl + "\n" + strings.Join(kept, "\n")
}
