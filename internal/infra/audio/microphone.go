//go:build portaudio
// +build portaudio

package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"voicecalc/internal/application"
)

const framesPerBuffer = 1024

// MicrophoneSource captures utterances from the default input device. An
// utterance ends after SilenceHangover of quiet once speech was heard.
type MicrophoneSource struct {
	format application.AudioFormat
	cfg    CaptureConfig
	logger *slog.Logger

	mu     sync.Mutex
	stream *portaudio.Stream
	frame  []int16
}

func NewMicrophoneSource(format application.AudioFormat, cfg CaptureConfig, logger *slog.Logger) *MicrophoneSource {
	cfg.setDefaults()
	return &MicrophoneSource{
		format: format,
		cfg:    cfg,
		logger: logger,
		frame:  make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(
		m.format.Channels,
		0,
		float64(m.format.SampleRate),
		framesPerBuffer,
		m.frame,
	)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting input stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone started", "sampleRate", m.format.SampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return nil
	}
	m.stream.Stop()
	m.stream.Close()
	m.stream = nil
	return portaudio.Terminate()
}

func (m *MicrophoneSource) NextUtterance(ctx context.Context) ([]byte, error) {
	rate := m.format.SampleRate
	hangover := int(m.cfg.SilenceHangover.Seconds() * float64(rate))
	maxSamples := int(m.cfg.MaxUtterance.Seconds() * float64(rate))

	samples := make([]int16, 0, rate*5)
	heard := false
	quiet := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		m.mu.Lock()
		stream := m.stream
		if stream == nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("microphone not started")
		}
		if err := stream.Read(); err != nil {
			m.mu.Unlock()
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		frame := append([]int16(nil), m.frame...)
		m.mu.Unlock()

		if silent(frame, m.cfg.SilenceThreshold) {
			if !heard {
				continue
			}
			quiet += len(frame)
		} else {
			heard = true
			quiet = 0
		}
		samples = append(samples, frame...)

		if quiet > hangover || len(samples) > maxSamples {
			break
		}
	}

	m.logger.Debug("utterance captured", "duration", time.Duration(len(samples))*time.Second/time.Duration(rate))
	return samplesToWav(samples, rate)
}

func silent(frame []int16, threshold int16) bool {
	for _, sample := range frame {
		if sample > threshold || sample < -threshold {
			return false
		}
	}
	return true
}

func samplesToWav(samples []int16, sampleRate int) ([]byte, error) {
	var buf bytes.Buffer

	dataSize := len(samples) * 2
	header := []any{
		[]byte("RIFF"), int32(36 + dataSize), []byte("WAVE"),
		[]byte("fmt "), int32(16), int16(1), int16(1),
		int32(sampleRate), int32(sampleRate * 2), int16(2), int16(16),
		[]byte("data"), int32(dataSize),
	}
	for _, field := range header {
		if err := binary.Write(&buf, binary.LittleEndian, field); err != nil {
			return nil, fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("writing wav samples: %w", err)
	}
	return buf.Bytes(), nil
}
