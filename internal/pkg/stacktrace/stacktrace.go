// Package stacktrace trims runtime stacks down to this module's own frames.
package stacktrace

import "strings"

// InternalPaths returns the "internal/...go:line" locations found in a raw
// debug.Stack output, in call order.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ".go:")
		if idx == -1 {
			continue
		}

		loc, _, _ := strings.Cut(line, " ")
		if _, rest, ok := strings.Cut(loc, "/internal/"); ok {
			paths = append(paths, "internal/"+rest)
		}
	}

	return paths
}
