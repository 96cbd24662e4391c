package audio

import "time"

// CaptureConfig controls how the microphone splits speech into utterances.
type CaptureConfig struct {
	SilenceThreshold int16
	SilenceHangover  time.Duration
	MaxUtterance     time.Duration
}

func (c *CaptureConfig) setDefaults() {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 500
	}
	if c.SilenceHangover <= 0 {
		c.SilenceHangover = time.Second
	}
	if c.MaxUtterance <= 0 {
		c.MaxUtterance = 10 * time.Second
	}
}
