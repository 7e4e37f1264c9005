package core

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	"github.com/pkg/errors"
)

// TaskID identifies a batch submitted to a TaskGraph.
type TaskID int

// TaskGraph accepts batches with dependencies on earlier batches and runs
// each one on the underlying TaskSystem once all of its dependencies have
// finished. Ready batches run one at a time, in the order they became ready.
type TaskGraph struct {
	system TaskSystem
	logger Logger

	mu          sync.Mutex
	cond        *sync.Cond
	nodes       map[TaskID]*graphNode
	ready       *queue.Queue
	nextID      TaskID
	outstanding int
	err         error
	closed      bool

	done chan struct{}
}

type graphNode struct {
	id         TaskID
	runnable   Runnable
	total      int
	pending    int
	dependents []*graphNode
	depErr     error
	finished   bool
	err        error
}

// NewTaskGraph creates a TaskGraph that runs batches on system.
// The graph does not own system; closing the graph leaves it open.
func NewTaskGraph(system TaskSystem, logger Logger) *TaskGraph {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	g := &TaskGraph{
		system: system,
		logger: logger,
		nodes:  make(map[TaskID]*graphNode),
		ready:  queue.New(),
		done:   make(chan struct{}),
	}
	g.cond = sync.NewCond(&g.mu)
	go g.dispatch()
	return g
}

// RunAsyncWithDeps registers a batch of totalTasks indices of runnable that
// may start once every batch in deps has finished. It returns without
// waiting. If a dependency fails, the batch is not run and fails with an
// error wrapping the dependency's failure.
func (g *TaskGraph) RunAsyncWithDeps(runnable Runnable, totalTasks int, deps []TaskID) (TaskID, error) {
	if err := validateRun(runnable, totalTasks); err != nil {
		return 0, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return 0, ErrSystemClosed
	}
	for _, dep := range deps {
		if dep < 0 || dep >= g.nextID {
			return 0, fmt.Errorf("%w: %d", ErrUnknownDependency, dep)
		}
	}

	n := &graphNode{
		id:       g.nextID,
		runnable: runnable,
		total:    totalTasks,
	}
	g.nextID++
	g.nodes[n.id] = n
	g.outstanding++

	for _, dep := range deps {
		parent, ok := g.nodes[dep]
		if !ok {
			// Pruned by Sync, so it finished and its result was already reported.
			continue
		}
		if parent.finished {
			if parent.err != nil && n.depErr == nil {
				n.depErr = errors.Wrapf(parent.err, "dependency %d failed", parent.id)
			}
			continue
		}
		n.pending++
		parent.dependents = append(parent.dependents, n)
	}

	if n.pending == 0 {
		g.ready.Add(n)
		g.cond.Broadcast()
	}
	return n.id, nil
}

// Sync blocks until every submitted batch has finished and returns the first
// failure observed since the previous Sync.
func (g *TaskGraph) Sync() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.outstanding > 0 {
		g.cond.Wait()
	}

	for id, n := range g.nodes {
		if n.finished {
			delete(g.nodes, id)
		}
	}
	err := g.err
	g.err = nil
	return err
}

// Close waits for outstanding batches and stops the dispatcher.
func (g *TaskGraph) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.done
		return nil
	}
	g.closed = true
	g.cond.Broadcast()
	g.mu.Unlock()

	<-g.done
	return nil
}

// dispatch runs ready batches until the graph is closed and drained. Every
// waiting batch depends, transitively, on one that is ready or running, so an
// empty ready queue after Close means nothing is left.
func (g *TaskGraph) dispatch() {
	defer close(g.done)

	g.mu.Lock()
	for {
		for g.ready.Length() == 0 && !g.closed {
			g.cond.Wait()
		}
		if g.ready.Length() == 0 {
			g.mu.Unlock()
			return
		}

		n := g.ready.Remove().(*graphNode)
		err := n.depErr
		g.mu.Unlock()

		if err == nil {
			err = g.system.Run(n.runnable, n.total)
		}
		if err != nil {
			g.logger.Warn("graph batch failed",
				F("system", g.system.Name()),
				F("task_id", int(n.id)),
				F("error", err),
			)
		}

		g.mu.Lock()
		g.finish(n, err)
	}
}

// finish records the result of n and releases its dependents. Callers hold mu.
func (g *TaskGraph) finish(n *graphNode, err error) {
	n.finished = true
	n.err = err
	n.runnable = nil
	if err != nil && g.err == nil {
		g.err = err
	}
	for _, d := range n.dependents {
		if err != nil && d.depErr == nil {
			d.depErr = errors.Wrapf(err, "dependency %d failed", n.id)
		}
		d.pending--
		if d.pending == 0 {
			g.ready.Add(d)
		}
	}
	n.dependents = nil
	g.outstanding--
	g.cond.Broadcast()
}
