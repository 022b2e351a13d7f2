package model

// DocumentAnalysis aggregates a verification run over a whole document
type DocumentAnalysis struct {
	DocumentID      string              `json:"document_id,omitempty"`
	Title           string              `json:"title,omitempty"`
	TotalClaims     int                 `json:"total_claims"`
	Counts          map[Verdict]int     `json:"verdict_counts"`
	Percentages     map[Verdict]float64 `json:"verdict_percentages"` // Sum to 100 when TotalClaims > 0
	Summary         string              `json:"summary"`
	OverallAccuracy AccuracyBucket      `json:"overall_accuracy"`
	Signals         []Signal            `json:"signals"`
	Run             *VerificationRun    `json:"run"`
}

// AccuracyBucket classifies the overall claim mix of a document.
// Buckets are ordered from best to worst so they can be compared.
type AccuracyBucket string

const (
	AccuracyMostlyAccurate AccuracyBucket = "mostly_accurate"
	AccuracyMixed          AccuracyBucket = "mixed"
	AccuracyUnverified     AccuracyBucket = "unverified"
	AccuracyMisleading     AccuracyBucket = "misleading"
	AccuracyMostlyFalse    AccuracyBucket = "mostly_false"
	AccuracyUnknown        AccuracyBucket = "unknown" // No claims to judge
)

// Rank orders buckets by severity (0 is best). Unknown sorts last.
func (b AccuracyBucket) Rank() int {
	switch b {
	case AccuracyMostlyAccurate:
		return 0
	case AccuracyMixed:
		return 1
	case AccuracyUnverified:
		return 2
	case AccuracyMisleading:
		return 3
	case AccuracyMostlyFalse:
		return 4
	default:
		return 5
	}
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalVerdictMix        SignalType = "verdict_mix"        // Distribution of verdicts
	SignalFalseMass         SignalType = "false_mass"         // Share of false + misleading claims
	SignalEvidenceCoverage  SignalType = "evidence_coverage"  // Claims with no evidence
	SignalSourceCredibility SignalType = "source_credibility" // Mean credibility of cited sources
	SignalDegradedSources   SignalType = "degraded_sources"   // Retrieval failures during the run
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
