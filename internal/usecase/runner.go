package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackgroundRunner runs each job on its own goroutine and tracks it so
// shutdown can drain in-flight work. Jobs are never cancelled by their
// caller; only Shutdown can abort them.
type BackgroundRunner struct {
	wg    sync.WaitGroup
	abort context.Context
	stop  context.CancelFunc
}

func NewBackgroundRunner() *BackgroundRunner {
	abort, stop := context.WithCancel(context.Background())
	return &BackgroundRunner{abort: abort, stop: stop}
}

func (r *BackgroundRunner) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	jobCtx, cancel := context.WithCancel(ctx)
	unhook := func() bool { return false }
	if r.abort != nil {
		unhook = context.AfterFunc(r.abort, cancel)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		defer unhook()
		runGuarded(jobCtx, name, fn)
	}()
}

// Wait blocks until every started job has returned.
func (r *BackgroundRunner) Wait() {
	r.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (r *BackgroundRunner) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown waits for in-flight jobs until ctx is done. Jobs still running
// then have their context cancelled, so they take their failure path and
// log what they were holding, and Shutdown waits up to grace for that.
// It returns ctx's error when jobs had to be aborted.
func (r *BackgroundRunner) Shutdown(ctx context.Context, grace time.Duration) error {
	err := r.WaitContext(ctx)
	if err == nil {
		return nil
	}

	zap.L().Warn("drain window elapsed, aborting in-flight jobs", zap.Error(err))
	if r.stop != nil {
		r.stop()
	}

	graceCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if werr := r.WaitContext(graceCtx); werr != nil {
		zap.L().Error("jobs still running after abort", zap.Error(werr))
	}
	return err
}

// InlineRunner runs jobs on the caller's goroutine. Used by the CLI replay
// and in tests.
type InlineRunner struct{}

func (InlineRunner) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	runGuarded(ctx, name, fn)
}

func runGuarded(ctx context.Context, name string, fn func(ctx context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("background job panicked",
				zap.String("job", name),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
		}
	}()
	fn(ctx)
}
