package domain

import "time"

// MathError is the single value reported for any evaluation failure.
const MathError = "MATH_ERROR"

type ErrorKind string

const (
	ErrorKindNone                 ErrorKind = ""
	ErrorKindPermissionDenied     ErrorKind = "permission_denied"
	ErrorKindUnsupportedPlatform  ErrorKind = "unsupported_platform"
	ErrorKindEmptyInput           ErrorKind = "empty_input"
	ErrorKindIncompleteExpression ErrorKind = "incomplete_expression"
	ErrorKindInvalidCharacters    ErrorKind = "invalid_characters"
	ErrorKindEvaluationFailure    ErrorKind = "evaluation_failure"
	ErrorKindAmbiguousVoiceNumber ErrorKind = "ambiguous_voice_number"
	ErrorKindRecognitionFailure   ErrorKind = "recognition_failure"
	ErrorKindSpeechFailure        ErrorKind = "speech_failure"
)

type EventKind string

const (
	EventKindResult  EventKind = "result"
	EventKindError   EventKind = "error"
	EventKindPartial EventKind = "partial"
	EventKindPreview EventKind = "preview"
	EventKindState   EventKind = "state"
)

type ErrorDetail struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

// Event is emitted by the voice session to UI, history and webhook sinks.
type Event struct {
	ID         string       `json:"id"`
	Kind       EventKind    `json:"kind"`
	Time       time.Time    `json:"time"`
	Transcript string       `json:"transcript,omitempty"`
	Equation   string       `json:"equation,omitempty"`
	Result     string       `json:"result,omitempty"`
	SourceType SourceType   `json:"sourceType,omitempty"`
	Source     Source       `json:"source,omitempty"`
	Language   string       `json:"language,omitempty"`
	State      SessionState `json:"state,omitempty"`
	Error      *ErrorDetail `json:"error,omitempty"`
}
