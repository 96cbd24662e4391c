package application

import (
	"time"

	"voicecalc/internal/domain"
)

// Metrics receives controller and evaluation measurements.
type Metrics interface {
	ObserveEvaluation(src domain.SourceType, kind domain.ErrorKind, took time.Duration)
	ObserveTransition(from, to domain.SessionState)
	ObserveDroppedFinal(reason string)
	ObserveCacheLookup(language string, hit bool)
	ObserveSinkDrop(sink string)
}

type NoopMetrics struct{}

func (NoopMetrics) ObserveEvaluation(domain.SourceType, domain.ErrorKind, time.Duration) {}
func (NoopMetrics) ObserveTransition(domain.SessionState, domain.SessionState)           {}
func (NoopMetrics) ObserveDroppedFinal(string)                                           {}
func (NoopMetrics) ObserveCacheLookup(string, bool)                                      {}
func (NoopMetrics) ObserveSinkDrop(string)                                               {}
