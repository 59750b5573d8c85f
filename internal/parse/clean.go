package parse

import "strings"

const bulletChars = "•*·>—–-"

// CleanDescription collapses whitespace and strips leading/trailing bullet
// characters and stray integer tokens (reference numbers, column leftovers)
// from a raw description.
func CleanDescription(s string) string {
	fields := strings.Fields(s)

	for len(fields) > 0 {
		f := strings.Trim(fields[0], bulletChars)
		if f == "" || isInteger(f) {
			fields = fields[1:]
			continue
		}
		fields[0] = f
		break
	}

	for len(fields) > 0 {
		last := len(fields) - 1
		f := strings.Trim(fields[last], bulletChars)
		if f == "" || isInteger(f) {
			fields = fields[:last]
			continue
		}
		fields[last] = f
		break
	}

	return strings.Join(fields, " ")
}

func isInteger(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
