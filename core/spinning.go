package core

import "runtime"

// SpinningTaskSystem keeps a fixed set of workers alive for its whole
// lifetime. Idle workers poll the current batch without sleeping, trading CPU
// for claim latency; by default the caller of Run spins on the completed count
// as well. Only suitable when the pool has the machine to itself.
type SpinningTaskSystem struct {
	*threadPool
}

var _ TaskSystem = (*SpinningTaskSystem)(nil)

// NewSpinningTaskSystem creates a SpinningTaskSystem with the default config.
func NewSpinningTaskSystem(threads int) (*SpinningTaskSystem, error) {
	return NewSpinningTaskSystemWithConfig(threads, DefaultSystemConfig())
}

// NewSpinningTaskSystemWithConfig creates the pool and starts its workers.
func NewSpinningTaskSystemWithConfig(threads int, config *SystemConfig) (*SpinningTaskSystem, error) {
	pool, err := newThreadPool("Parallel + Thread Pool + Spin", "spinning", threads, config, WaitSpin)
	if err != nil {
		return nil, err
	}
	s := &SpinningTaskSystem{threadPool: pool}
	s.start(s.workerLoop)
	return s, nil
}

// workerLoop polls for work until Close raises the stopping flag.
func (s *SpinningTaskSystem) workerLoop(workerID int) {
	for {
		if s.stopping.Load() {
			return
		}

		// Check-then-increment must happen under one lock hold, otherwise two
		// workers can claim the same index.
		s.mu.Lock()
		b := s.batch
		idx, ok := b.claim()
		s.mu.Unlock()

		if !ok {
			runtime.Gosched()
			continue
		}
		s.execute(workerID, b, idx)
	}
}

// Run dispatches the batch to the workers and waits for it to finish.
func (s *SpinningTaskSystem) Run(runnable Runnable, totalTasks int) error {
	return s.run(runnable, totalTasks, func() {})
}

// Close stops and joins the workers.
func (s *SpinningTaskSystem) Close() error {
	return s.close(func() {})
}

// Stats returns current observability data for this system.
func (s *SpinningTaskSystem) Stats() PoolStats {
	return s.stats()
}
