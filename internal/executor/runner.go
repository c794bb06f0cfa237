package executor

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/studiowebux/apiquest/internal/errdef"
	"github.com/studiowebux/apiquest/internal/types"
)

// ErrInFlight is returned by Start while another execution runs
var ErrInFlight = errdef.New(errdef.CodeValidation, "a request is already in flight")

// Job runs one reserved execution. It must be called exactly once.
type Job func(ctx context.Context) (*types.Response, error)

// Runner guards execution so at most one request is in flight
type Runner struct {
	sem      *semaphore.Weighted
	inFlight atomic.Bool
	opts     Options
	execute  func(context.Context, types.Request, Options) (*types.Response, error)
}

// NewRunner creates a runner dispatching with opts
func NewRunner(opts Options) *Runner {
	return &Runner{
		sem:     semaphore.NewWeighted(1),
		opts:    opts,
		execute: Execute,
	}
}

// Options returns the client options in use
func (r *Runner) Options() Options {
	return r.opts
}

// Busy reports whether a job holds the slot
func (r *Runner) Busy() bool {
	return r.inFlight.Load()
}

// Start reserves the single execution slot and snapshots req. The returned
// job releases the slot when it finishes.
func (r *Runner) Start(req types.Request) (Job, error) {
	if !r.sem.TryAcquire(1) {
		return nil, ErrInFlight
	}
	r.inFlight.Store(true)

	snapshot := req.Clone()
	return func(ctx context.Context) (*types.Response, error) {
		defer func() {
			r.inFlight.Store(false)
			r.sem.Release(1)
		}()
		return r.execute(ctx, snapshot, r.opts)
	}, nil
}
