package audio_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/infra/audio"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadSource_ReceiveAudio(t *testing.T) {
	source := audio.NewUploadSource(4, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}
	defer source.Stop()

	testAudio := []byte("fake audio data for testing")
	go func() {
		time.Sleep(50 * time.Millisecond)
		source.InjectAudio(testAudio)
	}()

	received, err := source.NextUtterance(ctx)
	if err != nil {
		t.Fatalf("receiving audio: %v", err)
	}
	if !bytes.Equal(received, testAudio) {
		t.Errorf("audio mismatch: got %d bytes, want %d bytes", len(received), len(testAudio))
	}
}

func TestUploadSource_Handler(t *testing.T) {
	tests := []struct {
		name       string
		running    bool
		body       []byte
		wantStatus int
	}{
		{"accepted", true, []byte("test audio content"), http.StatusAccepted},
		{"empty body", true, nil, http.StatusBadRequest},
		{"not listening", false, []byte("test audio content"), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := audio.NewUploadSource(4, discardLogger())
			if tt.running {
				source.Start(context.Background())
			}

			req := httptest.NewRequest(http.MethodPost, "/audio", bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()
			source.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestUploadSource_QueueFull(t *testing.T) {
	source := audio.NewUploadSource(1, discardLogger())
	source.Start(context.Background())

	if !source.InjectAudio([]byte("one")) {
		t.Fatal("first upload rejected")
	}
	if source.InjectAudio([]byte("two")) {
		t.Error("second upload accepted with a full queue")
	}

	source.Stop()
	source.Start(context.Background())
	if !source.InjectAudio([]byte("three")) {
		t.Error("queue not drained by Stop")
	}
}

func TestFileSource_LoadFromDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"utterance1.wav", "utterance2.webm", "notes.txt"} {
		path := filepath.Join(tmpDir, name)
		if err := os.WriteFile(path, []byte("RIFF....WAVEfmt "+name), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}
	}

	source := audio.NewFileSource(tmpDir, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := source.Start(ctx); err != nil {
		t.Fatalf("starting source: %v", err)
	}

	for i := 0; i < 2; i++ {
		data, err := source.NextUtterance(ctx)
		if err != nil {
			t.Fatalf("reading utterance %d: %v", i, err)
		}
		if len(data) == 0 {
			t.Errorf("utterance %d is empty", i)
		}
	}

	short, cancelShort := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelShort()
	if _, err := source.NextUtterance(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("third read: got %v, want deadline exceeded", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "utterance1.wav.processed")); err != nil {
		t.Errorf("processed file not renamed: %v", err)
	}
}

type scriptedSource struct {
	mu       sync.Mutex
	clips    [][]byte
	startErr error
	stops    int
}

func (s *scriptedSource) Name() string                  { return "scripted" }
func (s *scriptedSource) Start(_ context.Context) error { return s.startErr }

func (s *scriptedSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	return nil
}

func (s *scriptedSource) NextUtterance(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	if len(s.clips) > 0 {
		clip := s.clips[0]
		s.clips = s.clips[1:]
		s.mu.Unlock()
		return clip, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

type mapSTT struct {
	texts     map[string]string
	err       error
	languages []string
	mu        sync.Mutex
}

func (m *mapSTT) Transcribe(_ context.Context, audio []byte, language string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.languages = append(m.languages, language)
	if m.err != nil {
		return "", m.err
	}
	return m.texts[string(audio)], nil
}

type chanListener struct {
	finals chan string
	errs   chan error
}

func newChanListener() *chanListener {
	return &chanListener{finals: make(chan string, 8), errs: make(chan error, 8)}
}

func (l *chanListener) OnInterim(string)    {}
func (l *chanListener) OnFinal(text string) { l.finals <- text }
func (l *chanListener) OnError(err error)   { l.errs <- err }

func TestRecognizer_TranscribesUtterances(t *testing.T) {
	source := &scriptedSource{clips: [][]byte{[]byte("a"), []byte("silence"), []byte("b")}}
	stt := &mapSTT{texts: map[string]string{"a": "two plus two", "silence": "  ", "b": "three times three"}}
	rec := audio.NewRecognizer(source, stt, discardLogger())

	l := newChanListener()
	opts := application.RecognitionOptions{Language: "es", Continuous: true}
	if err := rec.Start(context.Background(), opts, l); err != nil {
		t.Fatalf("starting recognizer: %v", err)
	}

	for _, want := range []string{"two plus two", "three times three"} {
		select {
		case got := <-l.finals:
			if got != want {
				t.Errorf("final: got %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("stopping recognizer: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if source.stops != 1 {
		t.Errorf("source stops: got %d, want 1", source.stops)
	}
	stt.mu.Lock()
	defer stt.mu.Unlock()
	for _, lang := range stt.languages {
		if lang != "es" {
			t.Errorf("transcribed with language %q, want es", lang)
		}
	}
}

func TestRecognizer_ReportsTranscriptionFailure(t *testing.T) {
	source := &scriptedSource{clips: [][]byte{[]byte("a")}}
	stt := &mapSTT{err: errors.New("quota exceeded")}
	rec := audio.NewRecognizer(source, stt, discardLogger())

	l := newChanListener()
	if err := rec.Start(context.Background(), application.RecognitionOptions{Continuous: true}, l); err != nil {
		t.Fatalf("starting recognizer: %v", err)
	}
	defer rec.Stop()

	select {
	case err := <-l.errs:
		if err == nil {
			t.Error("nil error delivered")
		}
	case <-time.After(time.Second):
		t.Fatal("no error delivered")
	}
}

func TestRecognizer_StartErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unsupported", domain.ErrUnsupportedPlatform, domain.ErrUnsupportedPlatform},
		{"permission", os.ErrPermission, domain.ErrPermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := audio.NewRecognizer(&scriptedSource{startErr: tt.err}, &mapSTT{}, discardLogger())
			err := rec.Start(context.Background(), application.RecognitionOptions{}, newChanListener())
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMicrophoneStub(t *testing.T) {
	mic := audio.NewMicrophoneSource(application.DefaultAudioFormat(), audio.CaptureConfig{}, discardLogger())
	if mic.Name() != "microphone" {
		t.Errorf("name: got %q", mic.Name())
	}
}
