package model

// Claim represents an atomic, checkable statement extracted from input text
type Claim struct {
	ID       int    `json:"id"`                 // 1-based, unique within a run
	Text     string `json:"text"`               // Normalized, self-contained statement
	Ordinal  int    `json:"ordinal"`            // Position in source text (0-based)
	Strategy string `json:"strategy,omitempty"` // Which extraction strategy produced it (e.g., "rule", "llm")
}

// ClaimState tracks a claim's progress through the pipeline
type ClaimState int

const (
	StateExtracted ClaimState = iota
	StateRetrieving
	StateScoring
	StateSynthesizing
	StateResolved
)

func (s ClaimState) String() string {
	switch s {
	case StateExtracted:
		return "extracted"
	case StateRetrieving:
		return "retrieving"
	case StateScoring:
		return "scoring"
	case StateSynthesizing:
		return "synthesizing"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// CanTransition reports whether a claim may move from s to next.
// Every state advances one step at a time, except that any unresolved
// state may jump straight to resolved when a stage fails.
func (s ClaimState) CanTransition(next ClaimState) bool {
	if s == StateResolved {
		return false
	}
	if next == StateResolved {
		return true
	}
	return next == s+1
}
