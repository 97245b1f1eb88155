package utils

import "strings"

// NormalizePhone drops formatting characters so "+1 (555) 010-2030" and
// "+15550102030" key the same user, code and order history.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
