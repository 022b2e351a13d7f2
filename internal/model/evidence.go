package model

// EvidenceItem is a retrieved snippet offered for or against a claim
type EvidenceItem struct {
	Title    string         `json:"title"`
	URL      string         `json:"url,omitempty"` // Empty for knowledge-base hits without a browsable source
	Snippet  string         `json:"snippet"`
	Origin   EvidenceOrigin `json:"origin"`
	SourceID string         `json:"source_id"`            // Domain (web) or document id (knowledge base)
	Score    float64        `json:"similarity,omitempty"` // Similarity for knowledge-base hits
	Trust    *float64       `json:"-"`                    // Per-document trust override from KB metadata
}

// EvidenceOrigin tags where an evidence item came from
type EvidenceOrigin string

const (
	OriginWeb           EvidenceOrigin = "web"
	OriginKnowledgeBase EvidenceOrigin = "knowledge-base"
)

// CredibilityTier labels why a source received its credibility score
type CredibilityTier string

const (
	TierFactCheck     CredibilityTier = "fact_check"
	TierPrimary       CredibilityTier = "primary"
	TierSecondary     CredibilityTier = "secondary"
	TierUnknown       CredibilityTier = "unknown"
	TierUnreliable    CredibilityTier = "unreliable"
	TierKnowledgeBase CredibilityTier = "knowledge_base"
)

// ScoredEvidence pairs an evidence item with its source credibility
type ScoredEvidence struct {
	EvidenceItem
	Credibility float64         `json:"credibility"` // Always within [0,1]
	Tier        CredibilityTier `json:"tier"`
}

// SourceFailure records a degraded evidence source for one claim
type SourceFailure struct {
	Source EvidenceOrigin `json:"source"`
	Reason string         `json:"reason"`
}
