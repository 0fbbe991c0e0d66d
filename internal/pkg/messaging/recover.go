package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/ideabox/internal/pkg/stacktrace"
)

// runHandler turns a handler panic into an error so the message is nacked
// and redelivered instead of killing the consumer goroutine.
func runHandler(ctx context.Context, kind string, msg Message, handler Handler) (err error) {
	defer func() {
		rvr := recover()
		if rvr == nil {
			return
		}

		attrs := []any{"kind", kind, "topic", msg.Topic(), "panic", rvr}
		if paths := stacktrace.InternalPaths(debug.Stack()); len(paths) > 0 {
			attrs = append(attrs, "stack", paths)
		}
		slog.ErrorContext(ctx, "panic in messaging handler", attrs...)

		err = fmt.Errorf("messaging: panic in %s handler for %s: %v", kind, msg.Topic(), rvr)
	}()

	return handler(ctx, msg)
}
