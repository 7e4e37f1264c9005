package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-task-system/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	TaskDurationBuckets  []float64
	BatchDurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds  *prom.HistogramVec
	taskPanicTotal       *prom.CounterVec
	batchDurationSeconds *prom.HistogramVec
	batchTasksTotal      *prom.CounterVec
	batchFailedTotal     *prom.CounterVec
	parkedWorkers        *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "tasksys"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	taskBuckets := opts.TaskDurationBuckets
	if len(taskBuckets) == 0 {
		taskBuckets = prom.ExponentialBuckets(1e-6, 4, 12)
	}
	batchBuckets := opts.BatchDurationBuckets
	if len(batchBuckets) == 0 {
		batchBuckets = prom.DefBuckets
	}

	taskDurationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Execution time of a single task index in seconds.",
		Buckets:   taskBuckets,
	}, []string{"system"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"system"})
	batchDurationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall time of Run calls in seconds.",
		Buckets:   batchBuckets,
	}, []string{"system"})
	batchTasksVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "batch_tasks_total",
		Help:      "Total number of task indices submitted through Run.",
	}, []string{"system"})
	batchFailedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "batch_failed_total",
		Help:      "Total number of Run calls that ended with a task panic.",
	}, []string{"system"})
	parkedVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "parked_workers",
		Help:      "Workers currently parked waiting for work.",
	}, []string{"system"})

	var err error
	if taskDurationVec, err = registerCollector(reg, taskDurationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if batchDurationVec, err = registerCollector(reg, batchDurationVec); err != nil {
		return nil, err
	}
	if batchTasksVec, err = registerCollector(reg, batchTasksVec); err != nil {
		return nil, err
	}
	if batchFailedVec, err = registerCollector(reg, batchFailedVec); err != nil {
		return nil, err
	}
	if parkedVec, err = registerCollector(reg, parkedVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds:  taskDurationVec,
		taskPanicTotal:       panicVec,
		batchDurationSeconds: batchDurationVec,
		batchTasksTotal:      batchTasksVec,
		batchFailedTotal:     batchFailedVec,
		parkedWorkers:        parkedVec,
	}, nil
}

// RecordTaskDuration records task execution duration.
func (m *MetricsExporter) RecordTaskDuration(systemName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(systemName, "unknown")).Observe(duration.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(systemName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(systemName, "unknown")).Inc()
}

// RecordBatch records a finished Run call.
func (m *MetricsExporter) RecordBatch(systemName string, totalTasks int, duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	label := normalizeLabel(systemName, "unknown")
	m.batchDurationSeconds.WithLabelValues(label).Observe(duration.Seconds())
	m.batchTasksTotal.WithLabelValues(label).Add(float64(totalTasks))
	if failed {
		m.batchFailedTotal.WithLabelValues(label).Inc()
	}
}

// RecordParkedWorkers records the current parked worker count.
func (m *MetricsExporter) RecordParkedWorkers(systemName string, parked int) {
	if m == nil {
		return
	}
	m.parkedWorkers.WithLabelValues(normalizeLabel(systemName, "unknown")).Set(float64(parked))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
