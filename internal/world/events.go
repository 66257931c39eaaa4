package world

import (
	"context"
	"time"
)

// Типы событий мутаций сцены
const (
	EventBrickAdded   = "BrickAdded"
	EventBrickRemoved = "BrickRemoved"
)

// Cause источник мутации
type Cause string

const (
	CauseCommit Cause = "commit"
	CauseUndo   Cause = "undo"
	CauseRedo   Cause = "redo"
)

// MutationEvent описывает зафиксированное изменение индекса
type MutationEvent struct {
	EventType  string    `json:"event_type"`
	Cause      Cause     `json:"cause"`
	Brick      Snapshot  `json:"brick"`
	BrickCount int       `json:"brick_count"`
	Revision   uint64    `json:"revision"`
	At         time.Time `json:"at"`
}

// MutationSink получает события мутаций (шина событий, журнал и т.п.)
type MutationSink interface {
	BrickMutated(ctx context.Context, ev MutationEvent) error
}

// Recorder собирает метрики координатора
type Recorder interface {
	MutationApplied(eventType string, cause string)
	BrickCount(n int)
	Resolved(mode string, elapsed time.Duration, valid bool)
	CommitRejected(reason string)
}

// nopRecorder используется, когда метрики не подключены
type nopRecorder struct{}

func (nopRecorder) MutationApplied(string, string) {}
func (nopRecorder) BrickCount(int) {}
func (nopRecorder) Resolved(string, time.Duration, bool) {}
func (nopRecorder) CommitRejected(string) {}

// eventTypeOf возвращает тип события для применённого действия.
// При отмене действие применяется в обратную сторону.
func eventTypeOf(a Action, inverse bool) string {
	added := a.Kind == ActionAdd
	if inverse {
		added = !added
	}
	if added {
		return EventBrickAdded
	}
	return EventBrickRemoved
}
