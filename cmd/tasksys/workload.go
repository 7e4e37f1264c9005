package main

import (
	"fmt"
	"sync/atomic"

	"github.com/Swind/go-task-system/core"
)

// hitWorkload records how often each index of a batch ran. A correct task
// system leaves every counter at exactly one.
type hitWorkload struct {
	hits []atomic.Int32
	work int
	sink atomic.Uint64
}

func newHitWorkload(tasks, work int) *hitWorkload {
	return &hitWorkload{
		hits: make([]atomic.Int32, tasks),
		work: work,
	}
}

func (w *hitWorkload) RunTask(taskIndex, totalTasks int) {
	w.hits[taskIndex].Add(1)
	if w.work > 0 {
		x := uint64(taskIndex) + 1
		for i := 0; i < w.work; i++ {
			x = x*6364136223846793005 + 1442695040888963407
		}
		w.sink.Add(x)
	}
}

// verify checks every index ran once and resets the counters for the next round.
func (w *hitWorkload) verify() error {
	var err error
	for i := range w.hits {
		if got := w.hits[i].Swap(0); got != 1 && err == nil {
			err = fmt.Errorf("task %d ran %d times", i, got)
		}
	}
	return err
}

type runReport struct {
	System    string
	Rounds    int
	Tasks     int
	Completed int64
}

// runWorkload runs rounds batches of tasks indices on sys and verifies each one.
func runWorkload(sys core.TaskSystem, tasks, rounds, work int) (runReport, error) {
	w := newHitWorkload(tasks, work)
	report := runReport{System: sys.Name(), Tasks: tasks}

	for round := 0; round < rounds; round++ {
		if err := sys.Run(w, tasks); err != nil {
			return report, fmt.Errorf("round %d: %w", round, err)
		}
		if err := w.verify(); err != nil {
			return report, fmt.Errorf("round %d: %w", round, err)
		}
		report.Rounds++
	}
	report.Completed = sys.Stats().CompletedTasks
	return report, nil
}
