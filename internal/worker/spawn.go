package worker

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// SpawnStrategy starts a new goroutine for every submitted job. Useful
// when jobs are rare and must never queue behind each other.
type SpawnStrategy struct {
	logger  log.Logger
	timeout time.Duration
	jobs    chan Job
	wg      sync.WaitGroup
}

var _ Strategy = (*SpawnStrategy)(nil)

func NewSpawnStrategy(logger log.Logger, timeout time.Duration) *SpawnStrategy {
	s := &SpawnStrategy{
		logger:  logger,
		timeout: timeout,
		jobs:    make(chan Job),
	}
	s.start()
	return s
}

func (s *SpawnStrategy) start() {
	go func() {
		for job := range s.jobs {
			s.wg.Add(1)
			go func(j Job) {
				defer s.wg.Done()
				ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
				defer cancel()
				j(ctx)
			}(job)
		}
	}()
}

// Submit never drops a job; every submission gets its own goroutine.
func (s *SpawnStrategy) Submit(job Job) bool {
	s.jobs <- job
	return true
}

// Shutdown waits for all running jobs, up to timeout.
func (s *SpawnStrategy) Shutdown(timeout time.Duration) error {
	close(s.jobs)
	doneCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		return nil
	case <-time.After(timeout):
		level.Error(s.logger).Log("msg", "SpawnStrategy shutdown timed out", "timeout", timeout)
		return ErrShutdownTimeout
	}
}
