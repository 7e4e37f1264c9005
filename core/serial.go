package core

import (
	"sync"
	"time"
)

// SerialTaskSystem runs every task index in order on the calling goroutine.
// It is the reference implementation the parallel systems are checked against.
type SerialTaskSystem struct {
	systemStats

	runMu sync.Mutex
}

var _ TaskSystem = (*SerialTaskSystem)(nil)

// NewSerialTaskSystem creates a SerialTaskSystem with the default config.
func NewSerialTaskSystem() *SerialTaskSystem {
	return NewSerialTaskSystemWithConfig(DefaultSystemConfig())
}

// NewSerialTaskSystemWithConfig creates a SerialTaskSystem with the given config.
func NewSerialTaskSystemWithConfig(config *SystemConfig) *SerialTaskSystem {
	return &SerialTaskSystem{
		systemStats: newSystemStats("Serial", "serial", 1, config),
	}
}

// Run executes indices 0..totalTasks-1 sequentially. The first panicking task
// stops the loop.
func (s *SerialTaskSystem) Run(runnable Runnable, totalTasks int) error {
	if err := validateRun(runnable, totalTasks); err != nil {
		return err
	}
	if totalTasks == 0 {
		return nil
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	seq := s.nextSeq()
	startedAt := time.Now()
	var err error
	for i := 0; i < totalTasks; i++ {
		if err = invokeTask(s.name, &s.config, -1, runnable, i, totalTasks); err != nil {
			break
		}
	}
	s.recordBatch(seq, totalTasks, startedAt, err)
	return err
}

// Close is a no-op; the serial system owns no goroutines.
func (s *SerialTaskSystem) Close() error {
	return nil
}

// Stats returns current observability data for this system.
func (s *SerialTaskSystem) Stats() PoolStats {
	stats := s.snapshot()
	stats.Running = true
	return stats
}
