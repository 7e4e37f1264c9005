// Package tasksys provides task systems: schedulers that run every index of
// a Runnable on a set of workers and return once all of them have finished.
//
// Four strategies are available, all behind the same core.TaskSystem
// interface:
//
//   - serial: every index on the calling goroutine, in order.
//   - spawn: a fresh set of workers per Run, indices striped statically.
//   - spinning: persistent workers that poll for work without sleeping.
//   - sleeping: persistent workers that park on a condition variable when idle.
//
// # Quick Start
//
// Create a system once and reuse it for many batches:
//
//	sys, err := tasksys.New(tasksys.KindSleeping, runtime.NumCPU(), nil)
//	if err != nil {
//		return err
//	}
//	defer sys.Close()
//
//	out := make([]float64, len(in))
//	err = sys.Run(core.RunnableFunc(func(i, n int) {
//		out[i] = math.Sqrt(in[i])
//	}), len(in))
//
// Or use the process-wide default system:
//
//	tasksys.InitDefaultSystem(tasksys.KindSleeping, 8)
//	defer tasksys.ShutdownDefaultSystem()
//
//	tasksys.ParallelFor(len(in), func(i int) { out[i] = math.Sqrt(in[i]) })
//
// # Guarantees
//
// Run invokes RunTask exactly once for every index in [0, n) and returns only
// after all invocations finished. Indices are claimed in increasing order but
// may complete in any order. A panicking task makes Run return a
// *core.TaskPanicError instead of crashing the process or hanging the caller.
//
// # Dependencies
//
// core.TaskGraph layers dependency-aware submission on top of any system:
//
//	g := core.NewTaskGraph(sys, nil)
//	a, _ := g.RunAsyncWithDeps(load, n, nil)
//	b, _ := g.RunAsyncWithDeps(transform, n, []core.TaskID{a})
//	err := g.Sync()
package tasksys
