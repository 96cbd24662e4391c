package web

import "voicecalc/internal/domain"

// Messages sent by the browser.
const (
	msgHello            = "hello"
	msgListening        = "listening"
	msgPermissionDenied = "permission_denied"
	msgUnsupported      = "unsupported"
	msgInterim          = "interim"
	msgFinal            = "final"
	msgRecognitionError = "recognition_error"
	msgSpeechDone       = "speech_done"
	msgSpeechStopped    = "speech_stopped"
	msgSpeechError      = "speech_error"
)

// Messages sent to the browser.
const (
	msgListen        = "listen"
	msgStopListening = "stop_listening"
	msgSpeak         = "speak"
	msgCancelSpeech  = "cancel_speech"
	msgEvent         = "event"
)

type clientMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	ID   string `json:"id,omitempty"`
	// Detail describes recognition and speech failures.
	Detail string `json:"detail,omitempty"`
	// Voice is set in hello by clients that can recognize and speak.
	Voice bool `json:"voice,omitempty"`
	// Finality is set in hello when the client marks results final itself.
	Finality bool `json:"finality,omitempty"`
}

type serverMessage struct {
	Type       string        `json:"type"`
	Language   string        `json:"language,omitempty"`
	Continuous bool          `json:"continuous,omitempty"`
	ID         string        `json:"id,omitempty"`
	Text       string        `json:"text,omitempty"`
	Event      *domain.Event `json:"event,omitempty"`
}
