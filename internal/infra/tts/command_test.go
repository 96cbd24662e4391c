package tts_test

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
	"voicecalc/internal/infra/tts"
)

type outcome struct {
	result domain.SpeechOutcome
	err    error
}

func speak(t *testing.T, s *tts.CommandSynthesizer, text string) chan outcome {
	t.Helper()
	ch := make(chan outcome, 1)
	err := s.Speak(context.Background(), application.Utterance{ID: "u1", Text: text, Language: "en"}, func(o domain.SpeechOutcome, err error) {
		ch <- outcome{o, err}
	})
	if err != nil {
		t.Fatalf("speaking: %v", err)
	}
	return ch
}

func wait(t *testing.T, ch chan outcome) outcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(5 * time.Second):
		t.Fatal("utterance never finished")
		return outcome{}
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCommandSynthesizer_Done(t *testing.T) {
	requireShell(t)
	s := tts.NewCommandSynthesizer("sh", []string{"-c", "test \"$0\" = 25", "{text}"}, logger())

	if got := wait(t, speak(t, s, "25")); got.result != domain.SpeechDone {
		t.Errorf("outcome: got %s (%v), want done", got.result, got.err)
	}
}

func TestCommandSynthesizer_Error(t *testing.T) {
	requireShell(t)
	s := tts.NewCommandSynthesizer("sh", []string{"-c", "echo no voice >&2; exit 3"}, logger())

	got := wait(t, speak(t, s, "25"))
	if got.result != domain.SpeechError || got.err == nil {
		t.Errorf("outcome: got %s (%v), want error", got.result, got.err)
	}
}

func TestCommandSynthesizer_Cancel(t *testing.T) {
	requireShell(t)
	s := tts.NewCommandSynthesizer("sh", []string{"-c", "exec sleep 10"}, logger())

	ch := speak(t, s, "25")
	if err := s.Cancel(); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	if got := wait(t, ch); got.result != domain.SpeechStopped {
		t.Errorf("outcome: got %s, want stopped", got.result)
	}
	if err := s.Cancel(); err != nil {
		t.Errorf("second cancel: %v", err)
	}
}

func TestCommandSynthesizer_MissingCommand(t *testing.T) {
	s := tts.NewCommandSynthesizer("definitely-not-a-tts-binary", nil, logger())
	err := s.Speak(context.Background(), application.Utterance{Text: "1"}, func(domain.SpeechOutcome, error) {})
	if err == nil {
		t.Error("expected start error")
	}
}

func TestCommandSynthesizer_CancelDoesNotWaitForExit(t *testing.T) {
	requireShell(t)
	s := tts.NewCommandSynthesizer("sh", []string{"-c", "trap '' INT; while :; do sleep 0.05; done"}, logger())

	ch := speak(t, s, "25")
	time.Sleep(50 * time.Millisecond)

	began := time.Now()
	if err := s.Cancel(); err != nil {
		t.Fatalf("cancelling: %v", err)
	}
	if took := time.Since(began); took > 200*time.Millisecond {
		t.Errorf("cancel blocked for %v", took)
	}
	if got := wait(t, ch); got.result != domain.SpeechStopped {
		t.Errorf("outcome: got %s, want stopped", got.result)
	}
}
