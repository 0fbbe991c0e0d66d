// Package stacktrace shortens debug.Stack output for panic logs.
package stacktrace

import (
	"bytes"
	"strings"
)

// maxFrames bounds the logged frames; the panicking module frame is near the top.
const maxFrames = 16

// recoveryFrames are the panic-handling wrappers; logging them hides the
// handler or usecase that actually panicked.
var recoveryFrames = []string{
	"internal/pkg/stacktrace/",
	"internal/pkg/goroutine/",
	"internal/pkg/router/middleware_recover.go",
	"internal/pkg/messaging/recover.go",
}

// InternalPaths returns "internal/...go:line" locations from a raw stack,
// outermost recovery wrappers excluded.
func InternalPaths(stack []byte) []string {
	paths := make([]string, 0, maxFrames)
	for line := range bytes.Lines(stack) {
		if len(paths) == maxFrames {
			break
		}
		frame := strings.TrimSpace(string(line))

		// File lines look like "/src/ideabox/internal/x/y.go:42 +0x1d".
		idx := strings.Index(frame, "/internal/")
		if idx == -1 || !strings.Contains(frame, ".go:") {
			continue
		}
		frame = frame[idx+1:]
		if sp := strings.IndexByte(frame, ' '); sp != -1 {
			frame = frame[:sp]
		}
		if isRecoveryFrame(frame) {
			continue
		}
		paths = append(paths, frame)
	}
	return paths
}

func isRecoveryFrame(frame string) bool {
	for _, prefix := range recoveryFrames {
		if strings.HasPrefix(frame, prefix) {
			return true
		}
	}
	return false
}
