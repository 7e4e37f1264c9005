package core

import (
	"sync"
	"sync/atomic"
)

// threadPool holds the state shared by the persistent pools: a fixed set of
// workers created at construction and a current batch they claim indices from.
type threadPool struct {
	systemStats

	threads int
	wait    WaitStrategy

	// mu guards batch, batch.next, batch.err and parked.
	mu     sync.Mutex
	batch  *batch
	parked int

	stopping atomic.Bool
	wg       sync.WaitGroup

	// runMu serializes Run and Close.
	runMu     sync.Mutex
	closeOnce sync.Once
}

func newThreadPool(name, kind string, threads int, config *SystemConfig, defaultWait WaitStrategy) (*threadPool, error) {
	if err := validateThreads(threads); err != nil {
		return nil, err
	}
	p := &threadPool{
		systemStats: newSystemStats(name, kind, threads, config),
		threads:     threads,
	}
	p.wait = p.config.CallerWait
	if p.wait == WaitDefault {
		p.wait = defaultWait
	}
	return p, nil
}

// start launches the workers, each running loop with its worker ID.
func (p *threadPool) start(loop func(workerID int)) {
	p.wg.Add(p.threads)
	for w := 0; w < p.threads; w++ {
		w := w
		go func() {
			defer p.wg.Done()
			if p.config.LockOSThread {
				release := placeWorker(w, p.config.PinCPUs, p.config.Logger)
				defer release()
			}
			loop(w)
		}()
	}
	p.config.Logger.Debug("task system started",
		F("system", p.name),
		F("threads", p.threads),
		F("wait", p.wait.String()),
	)
}

// run installs a new batch, calls wake so idle workers notice it, and waits
// for the batch to finish.
func (p *threadPool) run(runnable Runnable, totalTasks int, wake func()) error {
	if err := validateRun(runnable, totalTasks); err != nil {
		return err
	}

	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.stopping.Load() {
		return ErrSystemClosed
	}
	if totalTasks == 0 {
		return nil
	}

	b := newBatch(p.nextSeq(), runnable, totalTasks)
	p.mu.Lock()
	p.batch = b
	p.mu.Unlock()
	wake()

	b.wait(p.wait)

	// Every index has completed, so no worker reads b.runnable again.
	// The Runnable must not stay reachable from the pool after Run.
	p.mu.Lock()
	err := b.err
	b.runnable = nil
	p.batch = nil
	p.mu.Unlock()

	p.recordBatch(b.seq, totalTasks, b.startedAt, err)
	return err
}

// execute runs one claimed index of b on behalf of workerID.
func (p *threadPool) execute(workerID int, b *batch, idx int) {
	if err := invokeTask(p.name, &p.config, workerID, b.runnable, idx, b.total); err != nil {
		p.mu.Lock()
		abandoned := b.fail(err)
		p.mu.Unlock()
		b.complete(1 + abandoned)
		return
	}
	b.complete(1)
}

// close raises the stopping flag under mu, calls wake and joins the workers.
func (p *threadPool) close(wake func()) error {
	p.closeOnce.Do(func() {
		p.runMu.Lock()
		defer p.runMu.Unlock()

		p.mu.Lock()
		p.stopping.Store(true)
		p.mu.Unlock()
		wake()

		p.wg.Wait()
		p.config.Logger.Debug("task system stopped", F("system", p.name))
	})
	return nil
}

func (p *threadPool) stats() PoolStats {
	stats := p.snapshot()
	p.mu.Lock()
	stats.Parked = p.parked
	p.mu.Unlock()
	stats.Running = !p.stopping.Load()
	return stats
}
