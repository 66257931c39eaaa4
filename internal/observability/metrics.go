package observability

import (
	"time"

	"github.com/annel0/brick-sandbox/internal/eventbus"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brick"

// BuildMetrics Prometheus-метрики конструктора.
// Реализует world.Recorder.
type BuildMetrics struct {
	mutations *prometheus.CounterVec
	bricks    prometheus.Gauge
	resolve   *prometheus.HistogramVec
	misses    *prometheus.CounterVec
	rejected  *prometheus.CounterVec
}

// NewBuildMetrics создаёт метрики и регистрирует их в reg
func NewBuildMetrics(reg prometheus.Registerer) *BuildMetrics {
	m := &BuildMetrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Применённые мутации сцены по типу события и причине.",
		}, []string{"event", "cause"}),
		bricks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bricks",
			Help:      "Текущее количество кирпичей в сцене.",
		}),
		resolve: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Длительность построения превью.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"mode"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_misses_total",
			Help:      "Тики, не давшие валидного превью.",
		}, []string{"mode"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_rejected_total",
			Help:      "Фиксации, завершившиеся no-op, по причине.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.mutations, m.bricks, m.resolve, m.misses, m.rejected)
	return m
}

func (m *BuildMetrics) MutationApplied(eventType string, cause string) {
	m.mutations.WithLabelValues(eventType, cause).Inc()
}

func (m *BuildMetrics) BrickCount(n int) {
	m.bricks.Set(float64(n))
}

func (m *BuildMetrics) Resolved(mode string, elapsed time.Duration, valid bool) {
	m.resolve.WithLabelValues(mode).Observe(elapsed.Seconds())
	if !valid {
		m.misses.WithLabelValues(mode).Inc()
	}
}

func (m *BuildMetrics) CommitRejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}

// RegisterBusStats экспортирует счётчики шины событий.
// Значения читаются из bus.Metrics() в момент сбора.
func RegisterBusStats(reg prometheus.Registerer, bus eventbus.EventBus) {
	reg.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_published_total",
			Help:      "Общее число опубликованных сообщений.",
		}, func() float64 { return float64(bus.Metrics().Published) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_consumed_total",
			Help:      "Общее число доставленных сообщений подписчикам.",
		}, func() float64 { return float64(bus.Metrics().Consumed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "eventbus",
			Name:      "messages_dropped_total",
			Help:      "Сообщений, отброшенных из-за ошибок или ограничения back-pressure.",
		}, func() float64 { return float64(bus.Metrics().Dropped) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "eventbus",
			Name:      "messages_inflight",
			Help:      "Количество сообщений, находящихся в очереди (не доставленных).",
		}, func() float64 { return float64(bus.Metrics().InFlight) }),
	)
}
