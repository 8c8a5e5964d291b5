// Package signals turns termination requests into a cooperative cancellation
// flag polled by the batch runner.
package signals

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// ForcedExitCode is the process exit code used when a second request arrives.
const ForcedExitCode = 1

// Controller records termination requests. The first signal sets the
// cancellation flag and lets in-flight work finish; a second signal ends the
// process immediately.
type Controller struct {
	cancelled atomic.Bool
	signals   atomic.Int32
	logger    *zap.Logger
	exit      func(code int)

	mu          sync.Mutex
	beforeExits []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithExit replaces os.Exit as the forced exit hook.
func WithExit(exit func(code int)) Option {
	return func(c *Controller) {
		c.exit = exit
	}
}

func NewController(logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		logger: logger,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Cancelled reports whether cancellation was requested.
func (c *Controller) Cancelled() bool {
	return c.cancelled.Load()
}

// Cancel sets the flag. It does not count as a signal, so the operator's
// first Ctrl+C afterwards still drains instead of exiting.
func (c *Controller) Cancel() {
	c.cancelled.Store(true)
}

// OnForcedExit registers fn to run before the process exits on a second
// signal. A nil controller ignores the registration.
func (c *Controller) OnForcedExit(fn func()) {
	if c == nil || fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beforeExits = append(c.beforeExits, fn)
}

// Request handles one termination signal.
func (c *Controller) Request(sig os.Signal) {
	c.cancelled.Store(true)
	if c.signals.Add(1) == 1 {
		c.logger.Warn("received termination signal, finishing current transcription and saving progress",
			zap.Stringer("signal", sig))
		c.logger.Warn("press Ctrl+C again to force exit (not recommended, data may be lost)")
		return
	}
	c.logger.Error("forced exit, the current file's result may be lost", zap.Stringer("signal", sig))
	c.mu.Lock()
	hooks := append([]func(){}, c.beforeExits...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
	_ = c.logger.Sync()
	c.exit(ForcedExitCode)
}

// Watch routes SIGINT and SIGTERM to Request until ctx is done or the returned
// stop function is called.
func (c *Controller) Watch(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-ch:
				c.Request(sig)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			cancel()
			wg.Wait()
		})
	}
}
