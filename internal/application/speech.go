package application

import (
	"context"
	"fmt"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// NoopSTT is used when native recognition has no transcription backend. It
// returns an error if called with audio.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set openai.api_key to enable native recognition")
}
