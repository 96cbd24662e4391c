package application

import (
	"context"

	"voicecalc/internal/domain"
)

type Utterance struct {
	ID       string
	Text     string
	Language string
}

// SpeechSynthesizer speaks one utterance at a time. done is called exactly
// once when playback finishes, is cancelled or fails; it may be called from
// any goroutine.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, u Utterance, done func(domain.SpeechOutcome, error)) error
	Cancel() error
}

// SilentSynthesizer completes every utterance immediately.
type SilentSynthesizer struct{}

func (SilentSynthesizer) Speak(_ context.Context, _ Utterance, done func(domain.SpeechOutcome, error)) error {
	go done(domain.SpeechDone, nil)
	return nil
}

func (SilentSynthesizer) Cancel() error { return nil }
