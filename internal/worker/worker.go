// Package worker runs the client's background tasks: cache refreshes and
// raw payload archiving. Strategies decide how submitted jobs map onto
// goroutines.
package worker

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Job is a unit of work executed asynchronously. It must capture
// everything it needs as a closure.
type Job func(ctx context.Context)

// Strategy executes submitted jobs and supports a bounded shutdown.
type Strategy interface {
	Submit(job Job) bool
	Shutdown(timeout time.Duration) error
}

// Manager owns a strategy and routes jobs to it.
type Manager struct {
	strategy Strategy
	logger   log.Logger
}

// NewManager creates a worker manager with the given strategy.
// jobTimeout is the maximum run time applied to each background job.
func NewManager(strategyType string, logger log.Logger, poolSize int, queueSize int, jobTimeout time.Duration) (*Manager, error) {
	if jobTimeout <= 0 {
		jobTimeout = 30 * time.Second
	}

	var strategy Strategy
	switch strategyType {
	case "spawn":
		strategy = NewSpawnStrategy(logger, jobTimeout)
	case "pool":
		strategy = NewPoolStrategy(logger, poolSize, queueSize, jobTimeout)
	default:
		level.Info(logger).Log("msg", "unknown strategy, defaulting to 'pool'", "strategy", strategyType)
		strategy = NewPoolStrategy(logger, poolSize, queueSize, jobTimeout)
	}

	return &Manager{
		strategy: strategy,
		logger:   logger,
	}, nil
}

// Submit hands a job to the configured strategy. It reports false when the
// job was dropped.
func (m *Manager) Submit(job Job) bool {
	return m.strategy.Submit(job)
}

// Shutdown stops the manager, waiting up to timeout for in-flight jobs.
func (m *Manager) Shutdown(timeout time.Duration) error {
	level.Info(m.logger).Log("msg", "shutting down worker manager")
	if err := m.strategy.Shutdown(timeout); err != nil {
		level.Error(m.logger).Log("msg", "error during shutdown", "err", err)
		return err
	}
	level.Info(m.logger).Log("msg", "worker manager shutdown complete")
	return nil
}
