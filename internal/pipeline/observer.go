package pipeline

import (
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

// Observer receives pipeline events. *metrics.Collector implements it.
type Observer interface {
	ClaimTransition(from, to model.ClaimState)
	SourceDegraded(source model.EvidenceOrigin)
	ClaimResolved(mode model.Mode, verdict model.Verdict, elapsed time.Duration)
	RunCompleted(mode model.Mode, claims int, elapsed time.Duration, err error)
	PersistFailed()
}

type nopObserver struct{}

func (nopObserver) ClaimTransition(from, to model.ClaimState)              {}
func (nopObserver) SourceDegraded(source model.EvidenceOrigin)             {}
func (nopObserver) ClaimResolved(model.Mode, model.Verdict, time.Duration) {}
func (nopObserver) RunCompleted(model.Mode, int, time.Duration, error)     {}
func (nopObserver) PersistFailed()                                         {}
