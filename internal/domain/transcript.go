package domain

// Source identifies which recognition platform produced a transcript.
type Source string

const (
	SourceWeb    Source = "web"
	SourceNative Source = "native"
)

type Finality string

const (
	FinalityInterim Finality = "interim"
	FinalityFinal   Finality = "final"
)

type Transcript struct {
	Text     string
	Source   Source
	Finality Finality
}

// SourceType tells the evaluator how an expression was entered.
type SourceType string

const (
	SourceTypeSpeech SourceType = "speech"
	SourceTypeKeypad SourceType = "keypad"
)
