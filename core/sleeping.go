package core

import "sync"

// SleepingTaskSystem keeps a fixed set of workers alive like
// SpinningTaskSystem, but a worker that finds nothing to claim parks on a
// condition variable until Run or Close wakes it. By default the caller of
// Run blocks until the last task of the batch signals completion, so an idle
// pool burns no CPU at all.
type SleepingTaskSystem struct {
	*threadPool

	cond *sync.Cond
}

var _ TaskSystem = (*SleepingTaskSystem)(nil)

// NewSleepingTaskSystem creates a SleepingTaskSystem with the default config.
func NewSleepingTaskSystem(threads int) (*SleepingTaskSystem, error) {
	return NewSleepingTaskSystemWithConfig(threads, DefaultSystemConfig())
}

// NewSleepingTaskSystemWithConfig creates the pool and starts its workers.
func NewSleepingTaskSystemWithConfig(threads int, config *SystemConfig) (*SleepingTaskSystem, error) {
	pool, err := newThreadPool("Parallel + Thread Pool + Sleep", "sleeping", threads, config, WaitBlock)
	if err != nil {
		return nil, err
	}
	s := &SleepingTaskSystem{threadPool: pool}
	s.cond = sync.NewCond(&s.mu)
	s.start(s.workerLoop)
	return s, nil
}

// workerLoop claims indices while there are any and parks otherwise.
//
// The stopping check, the claim attempt and the park all happen under one
// hold of mu. Run and Close change state under mu before broadcasting, so a
// worker can never park after missing a new batch or a shutdown.
func (s *SleepingTaskSystem) workerLoop(workerID int) {
	s.mu.Lock()
	for {
		if s.stopping.Load() {
			s.mu.Unlock()
			return
		}

		b := s.batch
		idx, ok := b.claim()
		if !ok {
			s.parked++
			s.config.Metrics.RecordParkedWorkers(s.name, s.parked)
			s.cond.Wait()
			s.parked--
			s.config.Metrics.RecordParkedWorkers(s.name, s.parked)
			continue
		}

		s.mu.Unlock()
		s.execute(workerID, b, idx)
		s.mu.Lock()
	}
}

// Run installs the batch and wakes every parked worker. All of them must
// re-check the claim condition, so this broadcasts rather than signals.
func (s *SleepingTaskSystem) Run(runnable Runnable, totalTasks int) error {
	return s.run(runnable, totalTasks, s.cond.Broadcast)
}

// Close raises the stopping flag, wakes parked workers and joins them.
func (s *SleepingTaskSystem) Close() error {
	return s.close(s.cond.Broadcast)
}

// Stats returns current observability data for this system.
func (s *SleepingTaskSystem) Stats() PoolStats {
	return s.stats()
}
