// Package dispatch runs adapter scans and applies on a bounded worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/tevino/abool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/privguard/internal/domain"
)

var (
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("dispatch queue full")

	// ErrStopped is returned by Submit after Stop.
	ErrStopped = errors.New("dispatcher stopped")
)

// Defaults used when Config leaves a field unset.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 16
)

// Config sizes the worker pool.
type Config struct {
	Workers   int
	QueueSize int
}

// Task is the unit of work run by a worker. progress is never nil.
type Task[T any] func(ctx context.Context, progress domain.ProgressFunc) (T, error)

// Coordinator is a fixed pool of workers draining a bounded queue.
// Submit never blocks.
type Coordinator struct {
	queue   chan func()
	workers errgroup.Group
	mu      sync.RWMutex // Held for read while enqueuing, for write while closing the queue
	stopped *abool.AtomicBool
	logger  *zap.Logger
}

// New starts a coordinator.
func New(cfg Config, logger *zap.Logger) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}

	c := &Coordinator{
		queue:   make(chan func(), cfg.QueueSize),
		stopped: abool.New(),
		logger:  logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		c.workers.Go(func() error {
			for run := range c.queue {
				run()
			}
			return nil
		})
	}

	logger.Debug("dispatcher started",
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_size", cfg.QueueSize))
	return c
}

func taskCounter(outcome string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`privguard_dispatch_tasks_total{outcome=%q}`, outcome))
}

// Submit queues fn and returns its future. It returns ErrQueueFull when
// the queue is at capacity and ErrStopped after Stop.
func Submit[T any](c *Coordinator, name string, fn Task[T]) (*Future[T], error) {
	f := newFuture[T]()
	run := func() {
		result, err := runSafe(name, fn, f.report)
		if err != nil {
			taskCounter("failed").Inc()
			c.logger.Warn("task failed", zap.String("task", name), zap.Error(err))
		} else {
			taskCounter("completed").Inc()
			c.logger.Debug("task completed", zap.String("task", name))
		}
		f.complete(result, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stopped.IsSet() {
		taskCounter("rejected").Inc()
		return nil, ErrStopped
	}
	select {
	case c.queue <- run:
		taskCounter("submitted").Inc()
		return f, nil
	default:
		taskCounter("rejected").Inc()
		c.logger.Warn("task rejected, queue full", zap.String("task", name))
		return nil, ErrQueueFull
	}
}

// runSafe runs fn, converting a panic into an ErrUnexpected result.
func runSafe[T any](name string, fn Task[T], progress domain.ProgressFunc) (result T, err error) {
	defer func() {
		if x := recover(); x != nil {
			var zero T
			result = zero
			err = fmt.Errorf("%w: task %s panicked: %v", domain.ErrUnexpected, name, x)
		}
	}()
	return fn(context.Background(), progress)
}

// Stop rejects new submissions, runs everything already queued and waits
// for the workers to exit. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.stopped.SetToIf(false, true) {
		close(c.queue)
	}
	c.mu.Unlock()

	_ = c.workers.Wait()
	c.logger.Debug("dispatcher stopped")
}

// ScanAsync submits a scan of a.
func ScanAsync(c *Coordinator, a domain.Adapter) (*Future[[]domain.ConfigItem], error) {
	return Submit[[]domain.ConfigItem](c, "scan "+string(a.Domain()), func(ctx context.Context, _ domain.ProgressFunc) ([]domain.ConfigItem, error) {
		return a.Scan(ctx)
	})
}

// ApplyAsync submits a bulk apply on a. Progress is reported per item.
func ApplyAsync(c *Coordinator, a domain.Adapter, items []domain.ConfigItem, desired domain.DesiredState) (*Future[domain.BulkResult], error) {
	return Submit[domain.BulkResult](c, "apply "+string(a.Domain()), func(ctx context.Context, progress domain.ProgressFunc) (domain.BulkResult, error) {
		return a.Apply(ctx, items, desired, progress), nil
	})
}
