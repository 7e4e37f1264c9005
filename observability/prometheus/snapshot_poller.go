package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-task-system/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// SystemSnapshotProvider provides current task system stats snapshots.
// Every core.TaskSystem satisfies it.
type SystemSnapshotProvider interface {
	Stats() core.PoolStats
}

// SnapshotPoller periodically exports task system Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	systemsMu sync.RWMutex
	systems   map[string]SystemSnapshotProvider

	workers   *prom.GaugeVec
	parked    *prom.GaugeVec
	batches   *prom.GaugeVec
	completed *prom.GaugeVec
	running   *prom.GaugeVec

	stateMu sync.Mutex
	active  bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	labels := []string{"system", "kind"}
	workers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "tasksys",
		Name:      "system_workers",
		Help:      "Worker count per task system.",
	}, labels)
	parked := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "tasksys",
		Name:      "system_parked_workers",
		Help:      "Parked worker count per task system.",
	}, labels)
	batches := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "tasksys",
		Name:      "system_batches",
		Help:      "Batches started per task system.",
	}, labels)
	completed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "tasksys",
		Name:      "system_completed_tasks",
		Help:      "Tasks of successful batches per task system.",
	}, labels)
	running := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "tasksys",
		Name:      "system_running",
		Help:      "Task system running state (1=running, 0=closed).",
	}, labels)

	var err error
	if workers, err = registerCollector(reg, workers); err != nil {
		return nil, err
	}
	if parked, err = registerCollector(reg, parked); err != nil {
		return nil, err
	}
	if batches, err = registerCollector(reg, batches); err != nil {
		return nil, err
	}
	if completed, err = registerCollector(reg, completed); err != nil {
		return nil, err
	}
	if running, err = registerCollector(reg, running); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:  interval,
		systems:   make(map[string]SystemSnapshotProvider),
		workers:   workers,
		parked:    parked,
		batches:   batches,
		completed: completed,
		running:   running,
	}, nil
}

// AddSystem adds or replaces a task system snapshot provider by name.
func (p *SnapshotPoller) AddSystem(name string, provider SystemSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "system")
	p.systemsMu.Lock()
	p.systems[name] = provider
	p.systemsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.active {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.active = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.active {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.active = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.systemsMu.RLock()
	defer p.systemsMu.RUnlock()

	for name, provider := range p.systems {
		stats := provider.Stats()
		kind := normalizeLabel(stats.Kind, "unknown")
		p.workers.WithLabelValues(name, kind).Set(float64(stats.Workers))
		p.parked.WithLabelValues(name, kind).Set(float64(stats.Parked))
		p.batches.WithLabelValues(name, kind).Set(float64(stats.Batches))
		p.completed.WithLabelValues(name, kind).Set(float64(stats.CompletedTasks))
		if stats.Running {
			p.running.WithLabelValues(name, kind).Set(1)
		} else {
			p.running.WithLabelValues(name, kind).Set(0)
		}
	}
}
