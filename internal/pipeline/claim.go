package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
)

// claimTracker walks one claim through
// extracted → retrieving → scoring → synthesizing → resolved.
// Illegal moves are rejected and logged, never applied.
type claimTracker struct {
	claimID  int
	state    model.ClaimState
	observer Observer
	log      *slog.Logger
}

func newClaimTracker(claimID int, observer Observer, log *slog.Logger) *claimTracker {
	return &claimTracker{claimID: claimID, state: model.StateExtracted, observer: observer, log: log}
}

func (t *claimTracker) advance(next model.ClaimState) bool {
	if !t.state.CanTransition(next) {
		t.log.Warn("rejected claim state transition", "claim_id", t.claimID, "from", t.state, "to", next)
		return false
	}
	t.observer.ClaimTransition(t.state, next)
	t.state = next
	return true
}

func (t *claimTracker) resolve() {
	if t.state != model.StateResolved {
		t.advance(model.StateResolved)
	}
}

// verifyClaim runs retrieval, scoring and synthesis for one claim. Any
// stage failure, including a panic, resolves the claim unverified.
func (p *Pipeline) verifyClaim(ctx context.Context, claim model.Claim, mode model.Mode, topK int) (result model.VerdictResult) {
	start := time.Now()
	tracker := newClaimTracker(claim.ID, p.observer, p.log)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("claim verification panicked", "claim_id", claim.ID, "panic", r)
			result = fallbackResult(claim, mode, fmt.Sprintf("internal error: %v", r))
		}
		tracker.resolve()
		p.observer.ClaimResolved(mode, result.Verdict, time.Since(start))
	}()

	tracker.advance(model.StateRetrieving)
	retrieved, err := p.retriever.Retrieve(ctx, claim, topK)
	if err != nil {
		return fallbackResult(claim, mode, "retrieval: "+err.Error())
	}
	for _, f := range retrieved.Failures {
		p.log.Warn("evidence source degraded", "claim_id", claim.ID, "source", f.Source, "reason", f.Reason)
		p.observer.SourceDegraded(f.Source)
	}

	tracker.advance(model.StateScoring)
	scored := p.scorer.ScoreAll(retrieved.Items)

	tracker.advance(model.StateSynthesizing)
	result = p.synthesizer.Synthesize(ctx, claim, scored, mode)
	if len(retrieved.Failures) > 0 {
		result.Degraded = retrieved.Failures
	}
	return result
}

func fallbackResult(claim model.Claim, mode model.Mode, reason string) model.VerdictResult {
	return model.VerdictResult{
		ClaimID:     claim.ID,
		Verdict:     model.VerdictUnverified,
		Confidence:  0,
		Explanation: "Verification failed: " + reason,
		Citations:   []model.Citation{},
		Mode:        mode,
		Failure:     reason,
	}
}
