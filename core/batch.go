package core

import (
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sys/cpu"
)

// batch describes one Run call on a persistent pool. A fresh batch is
// installed for every Run; workers keep the pointer they claimed from, so a
// late finisher can never touch the counters of a newer batch.
//
// runnable, total, seq and startedAt are immutable after construction.
// next and err are guarded by the owning pool's mutex.
type batch struct {
	runnable  Runnable
	total     int
	seq       uint64
	startedAt time.Time

	next int
	err  error

	_    cpu.CacheLinePad
	done atomic.Int64
	_    cpu.CacheLinePad

	finished chan struct{}
}

func newBatch(seq uint64, runnable Runnable, total int) *batch {
	return &batch{
		runnable:  runnable,
		total:     total,
		seq:       seq,
		startedAt: time.Now(),
		finished:  make(chan struct{}),
	}
}

// claim hands out the next unclaimed index. Callers hold the pool mutex.
func (b *batch) claim() (int, bool) {
	if b == nil || b.next >= b.total {
		return 0, false
	}
	idx := b.next
	b.next++
	return idx, true
}

// fail records err as the batch failure if none is recorded yet and abandons
// every unclaimed index. It returns the number of abandoned indices, which the
// caller must pass on to complete. Callers hold the pool mutex.
func (b *batch) fail(err error) int {
	if b.err == nil {
		b.err = err
	}
	abandoned := b.total - b.next
	b.next = b.total
	return abandoned
}

// complete marks n indices as finished. The call that reaches total closes
// the finished channel.
func (b *batch) complete(n int) {
	if b.done.Add(int64(n)) == int64(b.total) {
		close(b.finished)
	}
}

// wait blocks the caller until every index has finished.
func (b *batch) wait(strategy WaitStrategy) {
	if strategy == WaitSpin {
		for b.done.Load() < int64(b.total) {
			runtime.Gosched()
		}
		return
	}
	<-b.finished
}
