package application

import "context"

// AudioSource yields one utterance of raw PCM audio at a time. The native
// recognizer reads from it and sends each utterance to SpeechToText.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextUtterance(ctx context.Context) ([]byte, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}
