// Package tts speaks results through an external text-to-speech command such
// as espeak-ng or say.
package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"voicecalc/internal/application"
	"voicecalc/internal/domain"
)

const (
	textPlaceholder = "{text}"
	langPlaceholder = "{lang}"
	stopGrace       = 1200 * time.Millisecond
)

// CommandSynthesizer runs one process per utterance. Args may contain {text}
// and {lang}; without {text} the utterance is written to stdin.
type CommandSynthesizer struct {
	command string
	args    []string
	logger  *slog.Logger

	mu      sync.Mutex
	current *playback
}

type playback struct {
	cmd       *exec.Cmd
	waitErr   chan error
	cancelled bool
	stopOnce  sync.Once
}

func NewCommandSynthesizer(command string, args []string, logger *slog.Logger) *CommandSynthesizer {
	if command == "" {
		command = "espeak-ng"
	}
	if args == nil {
		args = []string{"-v", langPlaceholder, textPlaceholder}
	}
	return &CommandSynthesizer{command: command, args: args, logger: logger}
}

func (s *CommandSynthesizer) Speak(ctx context.Context, u application.Utterance, done func(domain.SpeechOutcome, error)) error {
	if err := s.Cancel(); err != nil {
		s.logger.Warn("cancelling previous utterance", "error", err)
	}

	args, stdin := s.expand(u)
	cmd := exec.CommandContext(ctx, s.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = stopGrace
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.command, err)
	}

	p := &playback{cmd: cmd, waitErr: make(chan error, 1)}
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	go func() {
		err := cmd.Wait()
		p.waitErr <- err
		close(p.waitErr)

		s.mu.Lock()
		cancelled := p.cancelled
		if s.current == p {
			s.current = nil
		}
		s.mu.Unlock()

		switch {
		case cancelled || ctx.Err() != nil:
			done(domain.SpeechStopped, nil)
		case err != nil:
			done(domain.SpeechError, fmt.Errorf("%s: %w: %s", s.command, err, strings.TrimSpace(stderr.String())))
		default:
			done(domain.SpeechDone, nil)
		}
	}()

	s.logger.Debug("speaking", "id", u.ID, "language", u.Language)
	return nil
}

// Cancel interrupts the current utterance and returns without waiting for it
// to exit. A process still running after a short grace period is killed; the
// utterance's done callback reports stopped either way.
func (s *CommandSynthesizer) Cancel() error {
	s.mu.Lock()
	p := s.current
	if p != nil {
		p.cancelled = true
		s.current = nil
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}

	p.stopOnce.Do(func() {
		if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Debug("interrupting speech", "error", err)
		}
		go s.reap(p)
	})
	return nil
}

func (s *CommandSynthesizer) reap(p *playback) {
	select {
	case <-p.waitErr:
	case <-time.After(stopGrace):
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("killing speech command", "command", s.command, "error", err)
		}
	}
}

func (s *CommandSynthesizer) expand(u application.Utterance) ([]string, string) {
	args := make([]string, len(s.args))
	hasText := false
	for i, a := range s.args {
		if strings.Contains(a, textPlaceholder) {
			hasText = true
		}
		a = strings.ReplaceAll(a, textPlaceholder, u.Text)
		args[i] = strings.ReplaceAll(a, langPlaceholder, u.Language)
	}
	if hasText {
		return args, ""
	}
	return args, u.Text
}
