package application

import (
	"context"

	"voicecalc/internal/domain"
)

type RecognitionOptions struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// RecognitionListener receives the events of one recognition session. The
// controller hands a fresh listener to every Start, so events delivered after
// the session was released are recognized as stale and dropped.
type RecognitionListener interface {
	OnInterim(text string)
	OnFinal(text string)
	OnError(err error)
}

// RecognitionProvider is a speech recognition capability. Start fails with
// domain.ErrPermissionDenied or domain.ErrUnsupportedPlatform when the
// capability cannot be acquired.
type RecognitionProvider interface {
	Name() string
	Source() domain.Source
	// SignalsFinality reports whether the provider marks utterances final on
	// its own. Providers that do not get finals promoted by polling in
	// continuous mode.
	SignalsFinality() bool
	Start(ctx context.Context, opts RecognitionOptions, listener RecognitionListener) error
	Stop() error
}

// UnavailableRecognizer is used when no recognition backend is configured.
type UnavailableRecognizer struct{}

func (UnavailableRecognizer) Name() string          { return "unavailable" }
func (UnavailableRecognizer) Source() domain.Source { return domain.SourceNative }
func (UnavailableRecognizer) SignalsFinality() bool { return true }
func (UnavailableRecognizer) Stop() error           { return nil }

func (UnavailableRecognizer) Start(context.Context, RecognitionOptions, RecognitionListener) error {
	return domain.ErrUnsupportedPlatform
}
