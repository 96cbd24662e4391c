package application

import "voicecalc/internal/domain"

// VoiceSession is the state owned by the controller loop. Callers only ever
// see copies returned by Snapshot.
type VoiceSession struct {
	State      domain.SessionState `json:"state"`
	Continuous bool                `json:"continuous"`
	Muted      bool                `json:"muted"`
	Language   string              `json:"language"`

	Interim                 string `json:"interim,omitempty"`
	LastProcessedTranscript string `json:"lastProcessedTranscript,omitempty"`
	LastResult              string `json:"lastResult,omitempty"`
	LastSpoken              string `json:"lastSpoken,omitempty"`
	IsSpeaking              bool   `json:"isSpeaking"`
}

// clearTranscripts resets everything derived from recognition input. The last
// result survives so a later "+5" still has something to apply to.
func (s *VoiceSession) clearTranscripts() {
	s.Interim = ""
	s.LastProcessedTranscript = ""
}
