package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/birdomatic/pkg/params"
)

// DefaultTimeout bounds a single evaluation unless WithTimeout overrides it.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a preset runs longer than the engine allows.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer Evaluate started before this
	// one finished.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-evaluation limit. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Concurrent lets overlapping evaluations all report their own result.
// Without it only the newest evaluation does, which suits a single editor
// but not a host serving independent callers.
func Concurrent() Option {
	return func(e *Engine) { e.concurrent = true }
}

// evalResult carries one evaluation back from its goroutine.
type evalResult struct {
	rec    *params.Record
	errors []EvalError
	err    error
}

// wait blocks until generation gen reports on ch, ctx is done, or the
// engine timeout passes. An abandoned goroutine runs to completion and its
// result is dropped.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64) (*params.Record, []EvalError, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	select {
	case res := <-ch:
		if !e.concurrent && !e.isCurrent(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.rec, res.errors, res.err

	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
		}
		return nil, nil, ctx.Err()
	}
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}
