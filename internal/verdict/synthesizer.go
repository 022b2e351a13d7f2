package verdict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/truthguard/internal/credibility"
	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
)

// Synthesizer turns a claim and its scored evidence into a verdict using
// the LLM judge endpoint
type Synthesizer struct {
	provider llm.Provider
	cfg      model.SynthesisConfig
	debate   model.DebateConfig
	count    TokenCounter
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithTokenCounter overrides the tokenizer named in the config
func WithTokenCounter(c TokenCounter) Option {
	return func(s *Synthesizer) { s.count = c }
}

// New creates a synthesizer. A nil provider resolves every claim unverified.
func New(provider llm.Provider, cfg model.SynthesisConfig, debate model.DebateConfig, opts ...Option) *Synthesizer {
	defaults := model.DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Synthesis.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.Synthesis.MaxTokens
	}
	if cfg.UnverifiedMaxConfidence <= 0 {
		cfg.UnverifiedMaxConfidence = defaults.Synthesis.UnverifiedMaxConfidence
	}
	if debate.JudgeTimeout <= 0 {
		debate.JudgeTimeout = defaults.Debate.JudgeTimeout
	}
	if debate.Judges < 3 {
		debate.Judges = 3
	} else if debate.Judges > 5 {
		debate.Judges = 5
	}

	s := &Synthesizer{provider: provider, cfg: cfg, debate: debate}
	for _, opt := range opts {
		opt(s)
	}
	if s.count == nil {
		s.count = NewTokenCounter(cfg.Tokenizer)
	}
	return s
}

// opinion is one decoded judge answer with citations already converted
// to 0-based indices
type opinion struct {
	verdict     model.Verdict
	confidence  float64
	explanation string
	citations   []int
}

// Synthesize produces the verdict for one claim. It never fails: judge
// errors resolve the claim unverified with the failure noted. Callers
// check ctx themselves to tell cancellation from a finished claim.
func (s *Synthesizer) Synthesize(ctx context.Context, claim model.Claim, evidence []model.ScoredEvidence, mode model.Mode) model.VerdictResult {
	if mode != model.ModeDebate {
		mode = model.ModeSingle
	}

	sorted := sortByCredibility(evidence)
	result := model.VerdictResult{
		ClaimID:                    claim.ID,
		Verdict:                    model.VerdictUnverified,
		Citations:                  []model.Citation{},
		EvidenceCount:              len(sorted),
		AggregateSourceCredibility: credibility.Aggregate(sorted),
		Mode:                       mode,
		Evidence:                   sorted,
	}

	if len(sorted) == 0 {
		result.Explanation = "No evidence was found for this claim, so it cannot be verified."
		return result
	}
	if s.provider == nil {
		result.Explanation = "No language model is configured, so the evidence could not be assessed."
		result.Failure = "no LLM provider configured"
		return result
	}

	shown := shownCount(sorted, s.cfg.MaxEvidence, s.cfg.EvidenceTokenBudget, s.count)
	prompt := buildPrompt(claim, sorted, shown, s.cfg.EvidenceTokenBudget, s.count)

	if mode == model.ModeDebate {
		s.runDebate(ctx, &result, prompt, shown)
	} else {
		s.runSingle(ctx, &result, prompt, shown)
	}

	s.finalize(&result, shown)
	return result
}

func (s *Synthesizer) runSingle(ctx context.Context, result *model.VerdictResult, prompt string, shown int) {
	op, err := s.judge(ctx, judgeRole, prompt, s.cfg.Temperature, s.cfg.Timeout, shown)
	if err != nil {
		logging.WithComponent("verdict").Warn("synthesis failed", "claim_id", result.ClaimID, "error", err)
		result.Verdict = model.VerdictUnverified
		result.Confidence = 0
		result.Explanation = "Verdict synthesis failed: " + failureText(err)
		result.Failure = err.Error()
		return
	}

	result.Verdict = op.verdict
	result.Confidence = op.confidence
	result.Explanation = op.explanation
	result.Citations = citationsFor(result.Evidence, op.citations)
}

// judge runs one judge call under its own timeout
func (s *Synthesizer) judge(ctx context.Context, role Role, prompt string, temperature float64, timeout time.Duration, shown int) (opinion, error) {
	jctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := llm.CompleteJSON(jctx, s.provider, llm.CompletionRequest{
		System:      role.System,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}, checkReply)
	if err != nil {
		return opinion{}, classify(jctx, err)
	}

	op := opinion{
		verdict:     model.NormalizeVerdict(reply.Verdict),
		confidence:  float64(reply.Confidence),
		explanation: strings.TrimSpace(reply.Explanation),
	}
	for _, ref := range reply.Citations {
		if i := int(ref) - 1; i >= 0 && i < shown {
			op.citations = append(op.citations, i)
		}
	}
	return op, nil
}

func classify(jctx context.Context, err error) error {
	switch {
	case errors.Is(err, llm.ErrMalformedJSON):
		return &model.SynthesisError{Kind: model.SynthesisParse, Err: err}
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(jctx.Err(), context.DeadlineExceeded):
		return &model.SynthesisError{Kind: model.SynthesisTimeout, Err: err}
	default:
		return &model.SynthesisError{Kind: model.SynthesisLLM, Err: err}
	}
}

func failureText(err error) string {
	switch {
	case model.IsSynthesisKind(err, model.SynthesisParse):
		return "the judge did not return a valid verdict after a retry."
	case model.IsSynthesisKind(err, model.SynthesisTimeout):
		return "the judge did not respond in time."
	default:
		return "the language model endpoint returned an error."
	}
}

// citationsFor maps 0-based indices onto citations, sorted and deduplicated
func citationsFor(evidence []model.ScoredEvidence, indices []int) []model.Citation {
	seen := make(map[int]bool)
	var unique []int
	for _, i := range indices {
		if i < 0 || i >= len(evidence) || seen[i] {
			continue
		}
		seen[i] = true
		unique = append(unique, i)
	}
	sort.Ints(unique)

	citations := make([]model.Citation, 0, len(unique))
	for _, i := range unique {
		citations = append(citations, model.Citation{
			Index:    i,
			SourceID: evidence[i].SourceID,
			URL:      evidence[i].URL,
		})
	}
	return citations
}

var indexRefRe = regexp.MustCompile(`\[\d+\]`)

// finalize enforces the invariants every result leaves with
func (s *Synthesizer) finalize(result *model.VerdictResult, shown int) {
	if !result.Verdict.Valid() {
		result.Verdict = model.VerdictUnverified
	}

	kept := result.Citations[:0]
	for _, c := range result.Citations {
		if c.Index >= 0 && c.Index < shown && c.Index < len(result.Evidence) {
			kept = append(kept, c)
		}
	}
	result.Citations = kept

	if result.EvidenceCount == 0 && result.Verdict != model.VerdictUnverified {
		result.Verdict = model.VerdictUnverified
		result.Failure = "verdict without evidence"
	}

	c := clamp(result.Confidence)
	if result.Verdict == model.VerdictUnverified && c > s.cfg.UnverifiedMaxConfidence {
		c = s.cfg.UnverifiedMaxConfidence
	}
	result.Confidence = math.Round(c*10000) / 10000

	if len(result.Citations) > 0 && !indexRefRe.MatchString(result.Explanation) {
		refs := make([]string, len(result.Citations))
		for i, c := range result.Citations {
			refs[i] = fmt.Sprintf("[%d]", c.Index+1)
		}
		explanation := strings.TrimSpace(result.Explanation)
		if explanation != "" {
			explanation += " "
		}
		result.Explanation = explanation + "Sources: " + strings.Join(refs, ", ")
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
