// Package emitter provides EventEmitter implementations that sit behind the
// core's notification boundary.
package emitter

import (
	"context"
	"log/slog"

	"github.com/smartqueue/smartqueue-backend/internal/core/domain"
	"github.com/smartqueue/smartqueue-backend/internal/core/ports"
)

// LogEmitter writes every dispatch event to the structured log. Useful on
// its own in development and as an audit trail alongside the websocket hub.
type LogEmitter struct {
	logger *slog.Logger
}

var _ ports.EventEmitter = (*LogEmitter)(nil)

func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	return &LogEmitter{logger: logger.With("component", "event_emitter")}
}

func (e *LogEmitter) Emit(ctx context.Context, event domain.Event) {
	e.logger.InfoContext(ctx, "dispatch event",
		"event_type", event.Type,
		"queue_id", event.QueueID,
		"occurred_at", event.OccurredAt,
	)
}

// MultiEmitter fans an event out to several emitters in order. Each target
// is expected to be non-blocking per the EventEmitter contract.
type MultiEmitter struct {
	targets []ports.EventEmitter
}

var _ ports.EventEmitter = (*MultiEmitter)(nil)

func NewMultiEmitter(targets ...ports.EventEmitter) *MultiEmitter {
	return &MultiEmitter{targets: targets}
}

func (e *MultiEmitter) Emit(ctx context.Context, event domain.Event) {
	for _, t := range e.targets {
		t.Emit(ctx, event)
	}
}
