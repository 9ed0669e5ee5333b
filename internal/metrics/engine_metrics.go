package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics содержит метрики движка целостности.
type EngineMetrics struct {
	// Счётчики сверки
	reconcileRuns     prometheus.Counter
	reconcileFailures prometheus.Counter

	// Счётчики ремонтов
	ordersRepaired prometheus.Counter
	ordersEmptied  prometheus.Counter
	repairFailures prometheus.Counter

	// Счётчики каскадов
	cascadeRuns    *prometheus.CounterVec
	cascadeAborted *prometheus.CounterVec

	// Гистограммы времени выполнения
	reconcileDuration prometheus.Histogram
	cascadeDuration   *prometheus.HistogramVec

	// Счётчик опубликованных событий целостности
	integrityEvents prometheus.Counter

	// Gauge висячих ссылок, замеченных на последней сверке
	danglingRefs prometheus.Gauge
}

// NewEngineMetrics создаёт метрики движка в регистраторе по умолчанию.
func NewEngineMetrics() *EngineMetrics {
	return newEngineMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newEngineMetricsWithRegisterer(registerer prometheus.Registerer) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &EngineMetrics{
		reconcileRuns: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_reconcile_runs_total",
			Help: "Total number of completed reconciliation passes",
		}),
		reconcileFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_reconcile_failures_total",
			Help: "Total number of reconciliation passes that failed to load collections",
		}),
		ordersRepaired: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_orders_repaired_total",
			Help: "Total number of orders with dangling references pruned and persisted",
		}),
		ordersEmptied: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_orders_emptied_total",
			Help: "Total number of orders deleted because repair left them without references",
		}),
		repairFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_repair_failures_total",
			Help: "Total number of per-order repair writes that failed and were skipped",
		}),
		cascadeRuns: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "refsync_cascade_runs_total",
			Help: "Total number of completed cascade deletions grouped by kind",
		}, []string{"kind"}),
		cascadeAborted: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "refsync_cascade_aborted_total",
			Help: "Total number of cascades aborted before the root delete",
		}, []string{"kind"}),
		reconcileDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "refsync_reconcile_duration_seconds",
			Help:    "Duration of reconciliation passes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		cascadeDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "refsync_cascade_duration_seconds",
			Help:    "Duration of cascade deletions in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"kind"}),
		integrityEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "refsync_integrity_events_total",
			Help: "Total number of integrity events published",
		}),
		danglingRefs: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "refsync_dangling_references",
			Help: "Number of dangling product references observed on the last reconciliation pass",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	collector := prometheus.NewHistogramVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram vec %q: %v", opts.Name, err))
	}
	return collector
}

// RecordReconcileRun увеличивает счётчик завершённых проходов сверки.
func (m *EngineMetrics) RecordReconcileRun() {
	m.reconcileRuns.Inc()
}

// RecordReconcileFailed увеличивает счётчик неудачных проходов сверки.
func (m *EngineMetrics) RecordReconcileFailed() {
	m.reconcileFailures.Inc()
}

// RecordOrderRepaired увеличивает счётчик отремонтированных заказов.
func (m *EngineMetrics) RecordOrderRepaired() {
	m.ordersRepaired.Inc()
}

// RecordOrderEmptied увеличивает счётчик заказов, удалённых из-за опустения.
func (m *EngineMetrics) RecordOrderEmptied() {
	m.ordersEmptied.Inc()
}

// RecordRepairFailed увеличивает счётчик неудачных ремонтов.
func (m *EngineMetrics) RecordRepairFailed() {
	m.repairFailures.Inc()
}

// RecordCascadeRun увеличивает счётчик завершённых каскадов указанного вида.
func (m *EngineMetrics) RecordCascadeRun(kind string) {
	m.cascadeRuns.WithLabelValues(kind).Inc()
}

// RecordCascadeAborted увеличивает счётчик прерванных каскадов.
func (m *EngineMetrics) RecordCascadeAborted(kind string) {
	m.cascadeAborted.WithLabelValues(kind).Inc()
}

// RecordReconcileDuration записывает длительность прохода сверки.
func (m *EngineMetrics) RecordReconcileDuration(duration time.Duration) {
	m.reconcileDuration.Observe(duration.Seconds())
}

// RecordCascadeDuration записывает длительность каскада указанного вида.
func (m *EngineMetrics) RecordCascadeDuration(kind string, duration time.Duration) {
	m.cascadeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordIntegrityEvent увеличивает счётчик опубликованных событий.
func (m *EngineMetrics) RecordIntegrityEvent() {
	m.integrityEvents.Inc()
}

// SetDanglingReferences фиксирует число висячих ссылок последней сверки.
func (m *EngineMetrics) SetDanglingReferences(n int) {
	m.danglingRefs.Set(float64(n))
}
