package core_test

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/Swind/go-task-system/core"
)

// quietConfig keeps panic tests from spamming the test log.
func quietConfig() *core.SystemConfig {
	logger := core.NewNoOpLogger()
	return &core.SystemConfig{
		Logger:       logger,
		PanicHandler: &core.DefaultPanicHandler{Logger: logger},
	}
}

type systemFactory struct {
	name string
	new  func(threads int, config *core.SystemConfig) (core.TaskSystem, error)
}

func factories() []systemFactory {
	return []systemFactory{
		{"serial", func(threads int, config *core.SystemConfig) (core.TaskSystem, error) {
			return core.NewSerialTaskSystemWithConfig(config), nil
		}},
		{"spawn", func(threads int, config *core.SystemConfig) (core.TaskSystem, error) {
			return core.NewSpawnTaskSystemWithConfig(threads, config)
		}},
		{"spinning", func(threads int, config *core.SystemConfig) (core.TaskSystem, error) {
			return core.NewSpinningTaskSystemWithConfig(threads, config)
		}},
		{"sleeping", func(threads int, config *core.SystemConfig) (core.TaskSystem, error) {
			return core.NewSleepingTaskSystemWithConfig(threads, config)
		}},
	}
}

func newSystem(t *testing.T, f systemFactory, threads int, config *core.SystemConfig) core.TaskSystem {
	t.Helper()
	if config == nil {
		config = quietConfig()
	}
	sys, err := f.new(threads, config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sys.Close() })
	return sys
}

// hitCounter records how many times each index was executed.
type hitCounter struct {
	hits  []atomic.Int32
	total atomic.Int32
}

func newHitCounter(n int) *hitCounter {
	return &hitCounter{hits: make([]atomic.Int32, n)}
}

func (h *hitCounter) RunTask(taskIndex, totalTasks int) {
	h.hits[taskIndex].Add(1)
	h.total.Add(1)
}

func (h *hitCounter) assertExactlyOnce(t *testing.T) {
	t.Helper()
	for i := range h.hits {
		if got := h.hits[i].Load(); got != 1 {
			t.Fatalf("index %d executed %d times, want 1", i, got)
		}
	}
}

// TestTaskSystems_ExactlyOnce verifies the core invariant for every strategy
// Given: Each task system with 4 threads
// When: Run is called with a range of task counts
// Then: Every index in [0, n) is executed exactly once
func TestTaskSystems_ExactlyOnce(t *testing.T) {
	counts := []int{0, 1, 3, 4, 17, 1000, 5000}
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 4, nil)
			for _, n := range counts {
				h := newHitCounter(n)
				require.NoError(t, sys.Run(h, n), "n=%d", n)
				h.assertExactlyOnce(t)
				assert.Equal(t, int32(n), h.total.Load(), "n=%d", n)
			}
		})
	}
}

// TestTaskSystems_RepeatedRuns verifies successive batches do not contaminate each other
// Given: A task system reused across calls
// When: Run is called twice with different counts
// Then: Both batches complete fully and independently
func TestTaskSystems_RepeatedRuns(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 3, nil)

			first := newHitCounter(100)
			require.NoError(t, sys.Run(first, 100))
			second := newHitCounter(7)
			require.NoError(t, sys.Run(second, 7))

			first.assertExactlyOnce(t)
			second.assertExactlyOnce(t)
			assert.Equal(t, int32(100), first.total.Load())
			assert.Equal(t, int32(7), second.total.Load())

			stats := sys.Stats()
			assert.Equal(t, uint64(2), stats.Batches)
			assert.Equal(t, int64(107), stats.CompletedTasks)

			recent := sys.RecentBatches(0)
			require.Len(t, recent, 2)
			assert.Equal(t, 7, recent[0].TotalTasks)
			assert.Equal(t, 100, recent[1].TotalTasks)
			assert.Equal(t, sys.Name(), recent[0].System)
		})
	}
}

// TestTaskSystems_SingleThread verifies a one-worker system still completes
func TestTaskSystems_SingleThread(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 1, nil)
			h := newHitCounter(257)
			require.NoError(t, sys.Run(h, 257))
			h.assertExactlyOnce(t)
		})
	}
}

// TestTaskSystems_Stress runs many batches back to back; meant for -race
func TestTaskSystems_Stress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in short mode")
	}
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 8, nil)
			for round := 0; round < 20; round++ {
				n := 2000 + round*37
				h := newHitCounter(n)
				require.NoError(t, sys.Run(h, n))
				h.assertExactlyOnce(t)
			}
		})
	}
}

// TestTaskSystems_ZeroTasks verifies n=0 returns immediately without invoking the runnable
func TestTaskSystems_ZeroTasks(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 4, nil)
			var calls atomic.Int32
			done := make(chan error, 1)
			go func() {
				done <- sys.Run(core.RunnableFunc(func(int, int) { calls.Add(1) }), 0)
			}()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("Run(n=0) did not return")
			}
			assert.Zero(t, calls.Load())
		})
	}
}

// TestTaskSystems_InvalidArguments verifies argument validation
func TestTaskSystems_InvalidArguments(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 2, nil)
			assert.ErrorIs(t, sys.Run(nil, 3), core.ErrNilRunnable)
			assert.ErrorIs(t, sys.Run(newHitCounter(1), -1), core.ErrInvalidTaskCount)
		})
	}
}

// TestTaskSystems_InvalidThreadCount verifies constructors fail fast
func TestTaskSystems_InvalidThreadCount(t *testing.T) {
	for _, f := range factories() {
		if f.name == "serial" {
			continue
		}
		t.Run(f.name, func(t *testing.T) {
			for _, threads := range []int{0, -3} {
				sys, err := f.new(threads, quietConfig())
				assert.ErrorIs(t, err, core.ErrInvalidThreadCount)
				assert.Nil(t, sys)
			}
		})
	}
}

// TestTaskSystems_PanicPropagates verifies a panicking task fails Run instead of hanging
// Given: A runnable that panics on index 5
// When: Run is called
// Then: Run returns a *TaskPanicError naming index 5, and the next Run still works
func TestTaskSystems_PanicPropagates(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 4, nil)
			boom := errors.New("boom")

			err := sys.Run(core.RunnableFunc(func(i, n int) {
				if i == 5 {
					panic(boom)
				}
			}), 64)

			var panicErr *core.TaskPanicError
			require.ErrorAs(t, err, &panicErr)
			assert.Equal(t, 5, panicErr.TaskIndex)
			assert.Equal(t, sys.Name(), panicErr.System)
			assert.NotEmpty(t, panicErr.Stack)
			assert.ErrorIs(t, err, boom)

			recent := sys.RecentBatches(1)
			require.Len(t, recent, 1)
			assert.True(t, recent[0].Failed)

			h := newHitCounter(50)
			require.NoError(t, sys.Run(h, 50))
			h.assertExactlyOnce(t)
		})
	}
}

// TestTaskSystems_PanicNeverDuplicates verifies abandoned work is not re-run
func TestTaskSystems_PanicNeverDuplicates(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			sys := newSystem(t, f, 4, nil)
			h := newHitCounter(500)
			err := sys.Run(core.RunnableFunc(func(i, n int) {
				h.RunTask(i, n)
				if i%97 == 3 {
					panic(fmt.Sprintf("task %d", i))
				}
			}), 500)
			require.Error(t, err)
			for i := range h.hits {
				assert.LessOrEqual(t, h.hits[i].Load(), int32(1), "index %d", i)
			}
		})
	}
}

type recordingPanicHandler struct {
	mu      sync.Mutex
	indices []int
}

func (h *recordingPanicHandler) HandlePanic(systemName string, workerID int, taskIndex int, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.indices = append(h.indices, taskIndex)
}

// TestTaskSystems_PanicHandlerCalled verifies the configured PanicHandler sees the panic
func TestTaskSystems_PanicHandlerCalled(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			handler := &recordingPanicHandler{}
			config := quietConfig()
			config.PanicHandler = handler
			sys := newSystem(t, f, 2, config)

			err := sys.Run(core.RunnableFunc(func(i, n int) {
				if i == 0 {
					panic("first")
				}
			}), 1)
			require.Error(t, err)

			handler.mu.Lock()
			defer handler.mu.Unlock()
			assert.Equal(t, []int{0}, handler.indices)
		})
	}
}

type countingMetrics struct {
	core.NilMetrics
	tasks   atomic.Int64
	panics  atomic.Int64
	batches atomic.Int64
	failed  atomic.Int64
}

func (m *countingMetrics) RecordTaskDuration(systemName string, duration time.Duration) {
	m.tasks.Add(1)
}

func (m *countingMetrics) RecordTaskPanic(systemName string, panicInfo any) {
	m.panics.Add(1)
}

func (m *countingMetrics) RecordBatch(systemName string, totalTasks int, duration time.Duration, failed bool) {
	m.batches.Add(1)
	if failed {
		m.failed.Add(1)
	}
}

// TestTaskSystems_Metrics verifies metrics hooks are called per task and per batch
func TestTaskSystems_Metrics(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			metrics := &countingMetrics{}
			config := quietConfig()
			config.Metrics = metrics
			sys := newSystem(t, f, 3, config)

			require.NoError(t, sys.Run(newHitCounter(30), 30))
			require.Error(t, sys.Run(core.RunnableFunc(func(int, int) { panic("x") }), 1))

			assert.Equal(t, int64(31), metrics.tasks.Load())
			assert.Equal(t, int64(1), metrics.panics.Load())
			assert.Equal(t, int64(2), metrics.batches.Load())
			assert.Equal(t, int64(1), metrics.failed.Load())
		})
	}
}

// TestTaskSystems_Names verifies the strategy labels
func TestTaskSystems_Names(t *testing.T) {
	want := map[string]string{
		"serial":   "Serial",
		"spawn":    "Parallel + Always Spawn",
		"spinning": "Parallel + Thread Pool + Spin",
		"sleeping": "Parallel + Thread Pool + Sleep",
	}
	for _, f := range factories() {
		sys := newSystem(t, f, 2, nil)
		assert.Equal(t, want[f.name], sys.Name())
		assert.Equal(t, f.name, sys.Stats().Kind)
	}
}

// TestTaskSystems_LockOSThread verifies workers still complete when locked to OS threads
func TestTaskSystems_LockOSThread(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			config := quietConfig()
			config.PinCPUs = true
			sys := newSystem(t, f, 2, config)
			h := newHitCounter(64)
			require.NoError(t, sys.Run(h, 64))
			h.assertExactlyOnce(t)
		})
	}
}
