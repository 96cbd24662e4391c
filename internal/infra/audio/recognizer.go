package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
)

// Recognizer is the native recognition provider: it pulls utterances from an
// AudioSource and transcribes each one. Every transcription is final, so the
// controller never needs to poll it.
type Recognizer struct {
	source application.AudioSource
	stt    application.SpeechToText
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRecognizer(source application.AudioSource, stt application.SpeechToText, logger *slog.Logger) *Recognizer {
	return &Recognizer{source: source, stt: stt, logger: logger}
}

func (r *Recognizer) Name() string          { return "native/" + r.source.Name() }
func (r *Recognizer) Source() domain.Source { return domain.SourceNative }
func (r *Recognizer) SignalsFinality() bool { return true }

func (r *Recognizer) Start(ctx context.Context, opts application.RecognitionOptions, l application.RecognitionListener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return fmt.Errorf("recognizer already running")
	}
	if err := r.source.Start(ctx); err != nil {
		return classifyStartError(err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.loop(loopCtx, opts, l, r.done)
	return nil
}

// Stop ends the current session and waits for its loop to exit. The
// listener receives nothing after Stop returns.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	err := r.source.Stop()
	<-done
	if err != nil {
		return fmt.Errorf("stopping %s: %w", r.source.Name(), err)
	}
	return nil
}

func (r *Recognizer) loop(ctx context.Context, opts application.RecognitionOptions, l application.RecognitionListener, done chan struct{}) {
	defer close(done)

	for {
		audio, err := r.source.NextUtterance(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			l.OnError(fmt.Errorf("capturing audio: %w", err))
			return
		}

		text, err := r.stt.Transcribe(ctx, audio, opts.Language)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			r.logger.Error("transcribing utterance", "bytes", len(audio), "error", err)
			l.OnError(fmt.Errorf("transcribing: %w", err))
			return
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		r.logger.Debug("utterance transcribed", "text", text)
		l.OnFinal(text)

		if !opts.Continuous {
			return
		}
	}
}

func classifyStartError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnsupportedPlatform), errors.Is(err, domain.ErrPermissionDenied):
		return err
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", domain.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("starting audio source: %w", err)
	}
}
