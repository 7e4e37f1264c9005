package core

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultBatchHistoryCapacity = 100

type batchHistory struct {
	mu    sync.Mutex
	items []BatchRecord
	head  int
	count int
}

func newBatchHistory(capacity int) batchHistory {
	if capacity < 1 {
		capacity = defaultBatchHistoryCapacity
	}
	return batchHistory{items: make([]BatchRecord, capacity)}
}

func (h *batchHistory) Add(record BatchRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == 0 {
		return
	}

	h.items[h.head] = record
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

func (h *batchHistory) Recent(limit int) []BatchRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return nil
	}

	if limit <= 0 || limit > h.count {
		limit = h.count
	}

	out := make([]BatchRecord, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}

func (h *batchHistory) Last() (BatchRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.count == 0 {
		return BatchRecord{}, false
	}

	idx := (h.head - 1 + len(h.items)) % len(h.items)
	return h.items[idx], true
}

// systemStats is the bookkeeping shared by every TaskSystem implementation.
type systemStats struct {
	name     string
	kind     string
	workers  int
	config   SystemConfig
	seq      atomic.Uint64
	finished atomic.Int64
	history  batchHistory
}

func newSystemStats(name, kind string, workers int, config *SystemConfig) systemStats {
	return systemStats{
		name:    name,
		kind:    kind,
		workers: workers,
		config:  resolveConfig(config),
		history: newBatchHistory(defaultBatchHistoryCapacity),
	}
}

// nextSeq returns the sequence number of a new batch, starting at 1.
func (s *systemStats) nextSeq() uint64 {
	return s.seq.Add(1)
}

func (s *systemStats) recordBatch(seq uint64, totalTasks int, startedAt time.Time, err error) {
	finishedAt := time.Now()
	failed := err != nil
	if !failed {
		s.finished.Add(int64(totalTasks))
	}
	s.history.Add(BatchRecord{
		Seq:        seq,
		System:     s.name,
		TotalTasks: totalTasks,
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
		Failed:     failed,
	})
	s.config.Metrics.RecordBatch(s.name, totalTasks, finishedAt.Sub(startedAt), failed)
}

func (s *systemStats) snapshot() PoolStats {
	return PoolStats{
		Name:           s.name,
		Kind:           s.kind,
		Workers:        s.workers,
		Batches:        s.seq.Load(),
		CompletedTasks: s.finished.Load(),
	}
}

// Name returns the strategy label.
func (s *systemStats) Name() string {
	return s.name
}

// RecentBatches returns finished Run calls in newest-first order.
func (s *systemStats) RecentBatches(limit int) []BatchRecord {
	return s.history.Recent(limit)
}
