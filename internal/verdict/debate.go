package verdict

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
)

// runDebate asks every judge concurrently and arbitrates once all have
// answered or timed out. Judges that fail abstain. When all abstain the
// claim is judged in single mode instead.
func (s *Synthesizer) runDebate(ctx context.Context, result *model.VerdictResult, prompt string, shown int) {
	log := logging.WithComponent("verdict")

	opinions := make([]opinion, s.debate.Judges)
	trace := make([]model.JudgeOpinion, s.debate.Judges)

	var g errgroup.Group
	for i := 0; i < s.debate.Judges; i++ {
		role := debateRoles[i%len(debateRoles)]
		g.Go(func() error {
			start := time.Now()
			op, err := s.judge(ctx, role, prompt, s.debate.Temperature, s.debate.JudgeTimeout, shown)
			trace[i] = model.JudgeOpinion{Role: role.Name, LatencyMs: time.Since(start).Milliseconds()}
			if err != nil {
				log.Info("judge abstained", "claim_id", result.ClaimID, "role", role.Name, "error", fmt.Errorf("%w: %v", model.ErrJudgeAbstain, err))
				trace[i].Abstained = true
				trace[i].Reason = err.Error()
				return nil
			}
			opinions[i] = op
			trace[i].Verdict = op.verdict
			trace[i].Confidence = op.confidence
			trace[i].Explanation = op.explanation
			trace[i].Citations = op.citations
			return nil
		})
	}
	_ = g.Wait()
	result.Judges = trace

	var voters []opinion
	var voterRoles []string
	for i, t := range trace {
		if !t.Abstained {
			voters = append(voters, opinions[i])
			voterRoles = append(voterRoles, t.Role)
		}
	}

	if len(voters) == 0 {
		if ctx.Err() != nil {
			return
		}
		log.Warn("all judges abstained, falling back to single mode", "claim_id", result.ClaimID)
		s.runSingle(ctx, result, prompt, shown)
		result.Failure = strings.TrimSpace("all debate judges abstained; single-mode fallback. " + result.Failure)
		return
	}

	a := arbitrate(voters, s.debate.DisagreementPenalty)
	result.Verdict = a.verdict
	result.Confidence = a.confidence

	var citations []int
	var parts []string
	parts = append(parts, fmt.Sprintf("Debate verdict: %s (%d of %d voting judges agree, %d abstained).",
		a.verdict, a.agreeing, len(voters), len(trace)-len(voters)))
	for i, op := range voters {
		if op.verdict != a.verdict && a.verdict != model.VerdictUnverified {
			continue
		}
		citations = append(citations, op.citations...)
		if op.explanation != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", titleCase(voterRoles[i]), op.explanation))
		}
	}
	result.Explanation = strings.Join(parts, "\n")
	result.Citations = citationsFor(result.Evidence, citations)
}

// arbitration is the reconciled debate outcome
type arbitration struct {
	verdict    model.Verdict
	confidence float64
	agreeing   int
}

// arbitrate takes a plurality vote; ties resolve unverified. Confidence is
// the mean confidence of the agreeing judges discounted by the share of
// voters that dissented.
func arbitrate(voters []opinion, penalty float64) arbitration {
	counts := make(map[model.Verdict]int)
	for _, op := range voters {
		counts[op.verdict]++
	}

	best, bestCount, tied := model.VerdictUnverified, 0, false
	for _, v := range model.AllVerdicts() {
		switch n := counts[v]; {
		case n > bestCount:
			best, bestCount, tied = v, n, false
		case n == bestCount && n > 0:
			tied = true
		}
	}
	if tied {
		best = model.VerdictUnverified
	}

	var sum float64
	agreeing := 0
	for _, op := range voters {
		if tied || op.verdict == best {
			sum += clamp(op.confidence)
			agreeing++
		}
	}
	if tied {
		agreeing = counts[model.VerdictUnverified]
	}

	mean := sum / float64(len(voters))
	if !tied {
		mean = sum / float64(bestCount)
	}
	dissent := float64(len(voters)-bestCount) / float64(len(voters))

	return arbitration{
		verdict:    best,
		confidence: mean * (1 - penalty*dissent),
		agreeing:   agreeing,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
