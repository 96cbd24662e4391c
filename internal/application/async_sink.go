package application

import (
	"context"
	"errors"
	"log/slog"

	"voicecalc/internal/domain"
)

var ErrSinkFull = errors.New("sink queue full")

// AsyncSink decouples a slow sink (webhook, database) from the controller
// loop. Publish only enqueues; events are dropped when the queue is full.
type AsyncSink struct {
	name    string
	next    EventSink
	queue   chan domain.Event
	logger  *slog.Logger
	metrics Metrics
}

func NewAsyncSink(name string, next EventSink, size int, logger *slog.Logger, metrics Metrics) *AsyncSink {
	if size <= 0 {
		size = 64
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &AsyncSink{
		name:    name,
		next:    next,
		queue:   make(chan domain.Event, size),
		logger:  logger,
		metrics: metrics,
	}
}

func (s *AsyncSink) Publish(_ context.Context, ev domain.Event) error {
	select {
	case s.queue <- ev:
		return nil
	default:
		s.metrics.ObserveSinkDrop(s.name)
		return ErrSinkFull
	}
}

// Run delivers queued events until ctx is cancelled. Events still queued at
// that point are delivered with a context that is no longer cancelled.
func (s *AsyncSink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain(context.WithoutCancel(ctx))
			return nil
		case ev := <-s.queue:
			s.deliver(ctx, ev)
		}
	}
}

func (s *AsyncSink) drain(ctx context.Context) {
	for {
		select {
		case ev := <-s.queue:
			s.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (s *AsyncSink) deliver(ctx context.Context, ev domain.Event) {
	if err := s.next.Publish(ctx, ev); err != nil {
		s.logger.Error("delivering event", "sink", s.name, "event", ev.ID, "error", err)
	}
}
