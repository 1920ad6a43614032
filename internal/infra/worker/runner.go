package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

type Task func(ctx context.Context) error

// Runner tracks background tasks so shutdown can drain them. Unlike a fixed
// pool it spawns one goroutine per task: pollers sleep for most of their
// lifetime and must not hold a worker slot hostage, and concurrent pollers
// are intentionally uncapped.
type Runner struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	log    *zerolog.Logger
}

func NewRunner(parent context.Context, logger *zerolog.Logger) *Runner {
	ctx, cancel := context.WithCancel(parent)
	compLog := logger.With().Str("component", "Runner").Logger()
	return &Runner{ctx: ctx, cancel: cancel, log: &compLog}
}

// Go launches task in its own goroutine. The task receives a context that is
// cancelled when the runner stops.
func (r *Runner) Go(name string, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.New("runner stopped")
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		if err := r.ctx.Err(); err != nil {
			return
		}
		if err := task(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error().Err(err).Str("task", name).Msg("background task error")
		}
	}()
	return nil
}

// Stop cancels all task contexts and waits for every task to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}
