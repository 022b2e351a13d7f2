package model

import (
	"strings"
	"time"
)

// Verdict is the pipeline's categorical conclusion about a claim
type Verdict string

const (
	VerdictTrue       Verdict = "true"
	VerdictFalse      Verdict = "false"
	VerdictMisleading Verdict = "misleading"
	VerdictUnverified Verdict = "unverified"
)

// AllVerdicts returns the four verdict values in reporting order
func AllVerdicts() []Verdict {
	return []Verdict{VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverified}
}

// Valid reports whether v is one of the four fixed values
func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictUnverified:
		return true
	}
	return false
}

var verdictSynonyms = map[string]Verdict{
	"true":              VerdictTrue,
	"correct":           VerdictTrue,
	"accurate":          VerdictTrue,
	"verified":          VerdictTrue,
	"factual":           VerdictTrue,
	"supported":         VerdictTrue,
	"false":             VerdictFalse,
	"incorrect":         VerdictFalse,
	"inaccurate":        VerdictFalse,
	"debunked":          VerdictFalse,
	"disproven":         VerdictFalse,
	"refuted":           VerdictFalse,
	"misleading":        VerdictMisleading,
	"partially true":    VerdictMisleading,
	"partially false":   VerdictMisleading,
	"partly true":       VerdictMisleading,
	"mixed":             VerdictMisleading,
	"half true":         VerdictMisleading,
	"out of context":    VerdictMisleading,
	"unverified":        VerdictUnverified,
	"unverifiable":      VerdictUnverified,
	"unclear":           VerdictUnverified,
	"unknown":           VerdictUnverified,
	"insufficient":      VerdictUnverified,
	"not enough info":   VerdictUnverified,
	"insufficient data": VerdictUnverified,
}

// NormalizeVerdict maps free-form judge output onto the closed verdict set.
// Anything unrecognized becomes unverified.
func NormalizeVerdict(raw string) Verdict {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, `"'.!`)
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	if v, ok := verdictSynonyms[s]; ok {
		return v
	}
	return VerdictUnverified
}

// Mode selects how verdicts are synthesized
type Mode string

const (
	ModeSingle  Mode = "single"
	ModeDebate  Mode = "debate"
	ModeCompare Mode = "compare" // single and debate, computed independently
)

// Citation references one evidence item of the claim's evidence list
type Citation struct {
	Index    int    `json:"index"` // 0-based position in VerdictResult.Evidence, shown as [Index+1] in explanations
	SourceID string `json:"source_id"`
	URL      string `json:"url,omitempty"`
}

// JudgeOpinion is one debate participant's independent assessment
type JudgeOpinion struct {
	Role        string  `json:"role"`
	Verdict     Verdict `json:"verdict,omitempty"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
	Citations   []int   `json:"citations,omitempty"`
	Abstained   bool    `json:"abstained"`
	Reason      string  `json:"reason,omitempty"` // Why the judge abstained
	LatencyMs   int64   `json:"latency_ms"`
}

// VerdictResult is the terminal artifact of the pipeline for one claim
type VerdictResult struct {
	ClaimID                    int              `json:"claim_id"`
	Verdict                    Verdict          `json:"verdict"`
	Confidence                 float64          `json:"confidence"`
	Explanation                string           `json:"explanation"`
	Citations                  []Citation       `json:"citations"`
	EvidenceCount              int              `json:"evidence_count"`
	AggregateSourceCredibility float64          `json:"aggregate_source_credibility"`
	Mode                       Mode             `json:"mode"`
	Evidence                   []ScoredEvidence `json:"evidence,omitempty"` // Credibility-sorted, citation indices refer here
	Judges                     []JudgeOpinion   `json:"judges,omitempty"`
	Degraded                   []SourceFailure  `json:"degraded_sources,omitempty"`
	Failure                    string           `json:"failure,omitempty"` // Stage failure that forced an unverified fallback
}

// VerifyRequest is the single verification call exposed to callers
type VerifyRequest struct {
	Text string `json:"text" validate:"maxbytes"`
	Mode Mode   `json:"mode" validate:"omitempty,oneof=single debate compare"`
	TopK int    `json:"top_k" validate:"omitempty,min=1,max=20"`
}

// VerificationRun aggregates all results of one verification call
type VerificationRun struct {
	ID             string                   `json:"id"`
	Mode           Mode                     `json:"mode"`
	Category       string                   `json:"category"`
	Claims         []Claim                  `json:"claims"`
	Results        []VerdictResult          `json:"results"`                // Aligned with Claims by index
	SubResults     map[Mode][]VerdictResult `json:"sub_results,omitempty"` // Only in compare mode
	ProcessingTime time.Duration            `json:"-"`
	ProcessingMs   int64                    `json:"processing_time_ms"`
	CreatedAt      time.Time                `json:"created_at"`
}
