package domain

import "errors"

// SessionState models the voice session lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateListening SessionState = "listening"
	SessionStateSpeaking  SessionState = "speaking"
)

// SpeechOutcome is how a text-to-speech utterance ended.
type SpeechOutcome string

const (
	SpeechDone    SpeechOutcome = "done"
	SpeechStopped SpeechOutcome = "stopped"
	SpeechError   SpeechOutcome = "error"
)

var (
	ErrPermissionDenied    = errors.New("microphone permission denied")
	ErrUnsupportedPlatform = errors.New("speech recognition not supported on this platform")
)
