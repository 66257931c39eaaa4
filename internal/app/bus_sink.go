package app

import (
	"context"
	"fmt"

	"github.com/annel0/brick-sandbox/internal/eventbus"
	"github.com/annel0/brick-sandbox/internal/world"
)

// EventSource источник событий мутаций в конверте
const EventSource = "coordinator"

// BusSink публикует мутации сцены в шину событий.
// Реализует world.MutationSink.
type BusSink struct {
	bus eventbus.EventBus
}

// NewBusSink создаёт адаптер над шиной
func NewBusSink(bus eventbus.EventBus) *BusSink {
	return &BusSink{bus: bus}
}

// BrickMutated упаковывает событие в конверт и публикует его с высоким приоритетом
func (s *BusSink) BrickMutated(ctx context.Context, ev world.MutationEvent) error {
	env, err := eventbus.NewEnvelope(EventSource, ev.EventType, eventbus.PriorityHigh, ev)
	if err != nil {
		return fmt.Errorf("bus sink: %w", err)
	}
	env.Metadata = map[string]string{
		"cause":    string(ev.Cause),
		"brick_id": string(ev.Brick.ID),
	}
	if err := s.bus.Publish(ctx, env); err != nil {
		return fmt.Errorf("bus sink: %w", err)
	}
	return nil
}
