package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/annel0/brick-sandbox/internal/eventbus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBuildMetrics(reg)

	m.MutationApplied("BrickAdded", "commit")
	m.MutationApplied("BrickAdded", "commit")
	m.MutationApplied("BrickRemoved", "undo")
	m.BrickCount(1)
	m.Resolved("build", 2*time.Millisecond, true)
	m.Resolved("build", time.Millisecond, false)
	m.CommitRejected("occupied")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("BrickAdded", "commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("BrickRemoved", "undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bricks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("build")), "Промах учитывается только для невалидного превью")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues("occupied")))

	expected := `
# HELP brick_bricks Текущее количество кирпичей в сцене.
# TYPE brick_bricks gauge
brick_bricks 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "brick_bricks"))

	count, err := testutil.GatherAndCount(reg, "brick_resolve_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "Одна серия гистограммы на режим")
}

func TestBuildMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewBuildMetrics(reg)
	assert.Panics(t, func() { NewBuildMetrics(reg) })
}

type fixedStatsBus struct {
	eventbus.EventBus
	stats eventbus.Stats
}

func (b fixedStatsBus) Metrics() eventbus.Stats { return b.stats }

func TestRegisterBusStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := fixedStatsBus{stats: eventbus.Stats{Published: 7, Consumed: 5, Dropped: 2, InFlight: 1}}
	RegisterBusStats(reg, bus)

	expected := `
# HELP eventbus_messages_dropped_total Сообщений, отброшенных из-за ошибок или ограничения back-pressure.
# TYPE eventbus_messages_dropped_total counter
eventbus_messages_dropped_total 2
# HELP eventbus_messages_published_total Общее число опубликованных сообщений.
# TYPE eventbus_messages_published_total counter
eventbus_messages_published_total 7
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"eventbus_messages_published_total", "eventbus_messages_dropped_total"))
}

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), "test", false)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
