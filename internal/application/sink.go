package application

import (
	"context"
	"errors"

	"voicecalc/internal/domain"
)

// EventSink receives session events. Publish is called from the controller
// loop and must not block; slow sinks go behind an AsyncSink.
type EventSink interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type NoopSink struct{}

func (n *NoopSink) Publish(_ context.Context, _ domain.Event) error {
	return nil
}

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev domain.Event) error

func (f SinkFunc) Publish(ctx context.Context, ev domain.Event) error {
	return f(ctx, ev)
}
