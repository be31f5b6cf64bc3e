// Package resource bounds the work done by snapshot save and load: how many
// types are encoded at once, how many encoded bytes may be buffered, and how
// fast bytes move to and from storage.
package resource

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrOverLimit is returned when a single reservation exceeds the configured
// buffer limit and could never be granted.
var ErrOverLimit = errors.New("reservation exceeds buffer limit")

// Config holds resource limits.
type Config struct {
	// BufferLimitBytes caps the encoded bytes held in memory at once.
	// If 0, buffers are only tracked.
	BufferLimitBytes int64

	// MaxWorkers is the maximum number of concurrent encode/decode workers.
	// If 0, defaults to GOMAXPROCS.
	MaxWorkers int64

	// IOBytesPerSec throttles snapshot reads and writes.
	// If 0, unlimited.
	IOBytesPerSec int64
}

// Controller hands out worker slots, buffer budget and IO budget.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	bufSem  *semaphore.Weighted // nil if unlimited
	bufUsed atomic.Int64

	workers *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = int64(runtime.GOMAXPROCS(0))
	}

	c := &Controller{
		cfg:     cfg,
		workers: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.BufferLimitBytes > 0 {
		c.bufSem = semaphore.NewWeighted(cfg.BufferLimitBytes)
	}

	if cfg.IOBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOBytesPerSec), int(cfg.IOBytesPerSec))
	}

	return c
}

// Workers returns the worker limit, or 0 for a nil controller.
func (c *Controller) Workers() int {
	if c == nil {
		return 0
	}
	return int(c.cfg.MaxWorkers)
}

// ReserveBuffer reserves n bytes of buffer budget, blocking until it is
// available or ctx is done.
func (c *Controller) ReserveBuffer(ctx context.Context, n int64) error {
	if c == nil || n <= 0 {
		return nil
	}

	if c.bufSem != nil {
		if n > c.cfg.BufferLimitBytes {
			return fmt.Errorf("%w: %d > %d", ErrOverLimit, n, c.cfg.BufferLimitBytes)
		}
		if err := c.bufSem.Acquire(ctx, n); err != nil {
			return err
		}
	}

	c.bufUsed.Add(n)
	return nil
}

// TryReserveBuffer reserves n bytes without blocking.
func (c *Controller) TryReserveBuffer(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}

	if c.bufSem != nil && !c.bufSem.TryAcquire(n) {
		return false
	}

	c.bufUsed.Add(n)
	return true
}

// ReleaseBuffer returns n bytes of buffer budget.
func (c *Controller) ReleaseBuffer(n int64) {
	if c == nil || n <= 0 {
		return
	}

	if c.bufSem != nil {
		c.bufSem.Release(n)
	}
	c.bufUsed.Add(-n)
}

// BufferUsage returns the bytes currently reserved.
func (c *Controller) BufferUsage() int64 {
	if c == nil {
		return 0
	}
	return c.bufUsed.Load()
}

// AcquireWorker reserves a worker slot. Blocks if all slots are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return ctx.Err()
	}
	return c.workers.Acquire(ctx, 1)
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	return c.workers.TryAcquire(1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workers.Release(1)
}

// WaitIO blocks until the IO limit allows n more bytes. Requests larger than
// one second of budget are split.
func (c *Controller) WaitIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.ioLimiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
