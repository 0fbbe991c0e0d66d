// Package goroutine runs long-lived background tasks such as the
// notification consumers, bounded and panic-safe.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/ideabox/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

var (
	// ErrPanic marks a task that panicked.
	ErrPanic = errors.New("goroutine: task panicked")
	// ErrRejected marks a task that was not started.
	ErrRejected = errors.New("goroutine: task rejected")
)

// Manager runs named tasks with a concurrency limit and collects their
// failures for Wait. A task ending with its context's cancellation is a
// clean stop, not a failure.
type Manager struct {
	mu   sync.Mutex
	errs []error

	wg   sync.WaitGroup
	sema chan struct{}

	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager running at most maxGoroutine tasks at once.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go starts f under name. It is a no-op, logged and recorded as ErrRejected,
// when the manager is waiting or at capacity.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()

	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, task not started", "task", name)
		g.record(fmt.Errorf("%s: %w: manager closed", name, ErrRejected))
		return
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, task not started", "task", name)
		g.record(fmt.Errorf("%s: %w: limit reached", name, ErrRejected))
		return
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()
		defer g.recoverTask(ctx, name)

		if err := f(ctx); err != nil && !stoppedByContext(ctx, err) {
			slog.ErrorContext(ctx, "task failed", "task", name, "error", err)
			g.record(fmt.Errorf("%s: %w", name, err))
		}
	})
}

// Wait stops accepting tasks, blocks until the running ones return, and
// joins their failures.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) recoverTask(ctx context.Context, name string) {
	rvr := recover()
	if rvr == nil {
		return
	}

	stack := debug.Stack()
	if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
		slog.ErrorContext(ctx, "panic occurred in task", "task", name, "panic", rvr, "stack", paths)
	} else {
		slog.ErrorContext(ctx, "panic occurred in task", "task", name, "panic", rvr, "stack", string(stack))
	}
	g.record(fmt.Errorf("%s: %w: %v", name, ErrPanic, rvr))
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

func stoppedByContext(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}
