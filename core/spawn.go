package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SpawnTaskSystem starts a fresh set of worker goroutines for every Run and
// joins them before returning. Indices are striped statically: worker w runs
// w, w+T, w+2T, ... which only balances well when tasks cost the same.
type SpawnTaskSystem struct {
	systemStats

	threads int
	runMu   sync.Mutex
}

var _ TaskSystem = (*SpawnTaskSystem)(nil)

// NewSpawnTaskSystem creates a SpawnTaskSystem with the default config.
func NewSpawnTaskSystem(threads int) (*SpawnTaskSystem, error) {
	return NewSpawnTaskSystemWithConfig(threads, DefaultSystemConfig())
}

// NewSpawnTaskSystemWithConfig creates a SpawnTaskSystem that spawns threads
// workers per Run.
func NewSpawnTaskSystemWithConfig(threads int, config *SystemConfig) (*SpawnTaskSystem, error) {
	if err := validateThreads(threads); err != nil {
		return nil, err
	}
	return &SpawnTaskSystem{
		systemStats: newSystemStats("Parallel + Always Spawn", "spawn", threads, config),
		threads:     threads,
	}, nil
}

// Run spawns the workers, waits for all of them and returns the first task
// panic, if any. After a panic the remaining workers stop before their next
// index.
func (s *SpawnTaskSystem) Run(runnable Runnable, totalTasks int) error {
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

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < s.threads; w++ {
		w := w
		g.Go(func() error {
			return s.runStripe(ctx, w, runnable, totalTasks)
		})
	}
	err := g.Wait()

	s.recordBatch(seq, totalTasks, startedAt, err)
	return err
}

// runStripe executes the indices assigned to worker w.
func (s *SpawnTaskSystem) runStripe(ctx context.Context, w int, runnable Runnable, totalTasks int) error {
	if s.config.LockOSThread {
		release := placeWorker(w, s.config.PinCPUs, s.config.Logger)
		defer release()
	}
	for i := w; i < totalTasks; i += s.threads {
		if ctx.Err() != nil {
			return nil
		}
		if err := invokeTask(s.name, &s.config, w, runnable, i, totalTasks); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; workers never outlive Run.
func (s *SpawnTaskSystem) Close() error {
	return nil
}

// Stats returns current observability data for this system.
func (s *SpawnTaskSystem) Stats() PoolStats {
	stats := s.snapshot()
	stats.Running = true
	return stats
}

// StripeIndices returns the indices worker w runs for a batch of totalTasks
// when the system has threads workers.
func StripeIndices(w, threads, totalTasks int) []int {
	if threads < 1 || w < 0 || w >= threads {
		return nil
	}
	var out []int
	for i := w; i < totalTasks; i += threads {
		out = append(out, i)
	}
	return out
}
