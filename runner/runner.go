// Package runner provides the executors that run authentication tasks.
//
// An executor only schedules work. It never retries; a task that fails is
// reported to its caller, who may issue a new task.
package runner

import (
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

var (
	// ErrSaturated is returned by a nonblocking Pool with no free worker.
	ErrSaturated = errors.New("executor saturated")
	// ErrClosed is returned after the executor was released.
	ErrClosed = errors.New("executor closed")
)

// Executor runs fn asynchronously. A nil error means fn will run exactly once.
type Executor interface {
	Submit(fn func()) error
}

// Go starts one goroutine per submission.
type Go struct{}

func (Go) Submit(fn func()) error {
	go fn()
	return nil
}

// Pool is a bounded goroutine pool.
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool of size workers. With nonblocking set, Submit fails
// with ErrSaturated instead of waiting for a free worker. Panics inside
// submitted work are logged and swallowed so a worker is never lost.
func NewPool(size int, nonblocking bool, logger *zap.Logger) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("runner: pool size must be positive, got %d", size)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p, err := ants.NewPool(size,
		ants.WithNonblocking(nonblocking),
		ants.WithPanicHandler(func(v any) {
			logger.Error("yggauth: task panicked", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

func (p *Pool) Submit(fn func()) error {
	err := p.pool.Submit(fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrSaturated
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrClosed
	default:
		return err
	}
}

// Running reports the number of busy workers.
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Close stops accepting work and waits up to timeout for running work.
func (p *Pool) Close(timeout time.Duration) error {
	return p.pool.ReleaseTimeout(timeout)
}
