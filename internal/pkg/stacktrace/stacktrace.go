// Package stacktrace trims runtime stack dumps down to project frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" entries for every
// frame of a debug.Stack dump that points inside an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.SplitSeq(string(stack), "\n") {
		line = strings.TrimSpace(line)

		idx := strings.Index(line, "/internal/")
		if idx == -1 || !strings.Contains(line, ".go:") {
			continue
		}

		frame := line[idx+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		paths = append(paths, frame)
	}
	return paths
}
