package credibility

import (
	"testing"

	"github.com/ppiankov/truthguard/internal/model"
)

func web(rawURL string) model.EvidenceItem {
	return model.EvidenceItem{URL: rawURL, Origin: model.OriginWeb}
}

func TestScorer_Classify_WebTiers(t *testing.T) {
	scorer := NewScorer(nil)

	tests := []struct {
		desc      string
		item      model.EvidenceItem
		wantScore float64
		wantTier  model.CredibilityTier
	}{
		{
			desc:      "Fact-checker exact domain",
			item:      web("https://www.snopes.com/fact-check/moon-landing/"),
			wantScore: 0.9,
			wantTier:  model.TierFactCheck,
		},
		{
			desc:      "Secondary outlet fact-check section",
			item:      web("https://www.reuters.com/fact-check/some-claim-2024"),
			wantScore: 0.9,
			wantTier:  model.TierFactCheck,
		},
		{
			desc:      "Secondary outlet regular article",
			item:      web("https://www.reuters.com/world/article"),
			wantScore: 0.7,
			wantTier:  model.TierSecondary,
		},
		{
			desc:      "Primary domain with subdomain",
			item:      web("https://science.nasa.gov/sun/facts/"),
			wantScore: 0.85,
			wantTier:  model.TierPrimary,
		},
		{
			desc:      "Government TLD",
			item:      web("https://www.energy.gov/report"),
			wantScore: 0.85,
			wantTier:  model.TierPrimary,
		},
		{
			desc:      "UK academic",
			item:      web("https://www.ox.ac.uk/research"),
			wantScore: 0.85,
			wantTier:  model.TierPrimary,
		},
		{
			desc:      "Wikipedia language subdomain",
			item:      web("https://en.wikipedia.org/wiki/Earth"),
			wantScore: 0.7,
			wantTier:  model.TierSecondary,
		},
		{
			desc:      "Unreliable domain",
			item:      web("https://www.infowars.com/posts/x"),
			wantScore: 0.2,
			wantTier:  model.TierUnreliable,
		},
		{
			desc:      "Unknown blog",
			item:      web("https://random-blog.example.com/post"),
			wantScore: 0.5,
			wantTier:  model.TierUnknown,
		},
		{
			desc:      "Lookalike domain is not a subdomain",
			item:      web("https://notsnopes.com/article"),
			wantScore: 0.5,
			wantTier:  model.TierUnknown,
		},
		{
			desc:      "Falls back to source id without URL",
			item:      model.EvidenceItem{SourceID: "politifact.com", Origin: model.OriginWeb},
			wantScore: 0.9,
			wantTier:  model.TierFactCheck,
		},
		{
			desc:      "Nothing to go on",
			item:      model.EvidenceItem{Origin: model.OriginWeb},
			wantScore: 0.5,
			wantTier:  model.TierUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			score, tier := scorer.Classify(tt.item)
			if score != tt.wantScore {
				t.Errorf("Expected score %v, got %v", tt.wantScore, score)
			}
			if tier != tt.wantTier {
				t.Errorf("Expected tier %s, got %s", tt.wantTier, tier)
			}
		})
	}
}

func TestScorer_KnowledgeBase(t *testing.T) {
	scorer := NewScorer(nil)

	base := model.EvidenceItem{Origin: model.OriginKnowledgeBase, SourceID: "doc1"}
	if score, tier := scorer.Classify(base); score != 0.8 || tier != model.TierKnowledgeBase {
		t.Errorf("Expected 0.8/knowledge_base, got %v/%s", score, tier)
	}

	trust := 0.97
	override := base
	override.Trust = &trust
	if score := scorer.Score(override); score != 0.97 {
		t.Errorf("Expected per-document trust 0.97, got %v", score)
	}

	bad := 1.7
	override.Trust = &bad
	if score := scorer.Score(override); score != 1 {
		t.Errorf("Expected trust clamped to 1, got %v", score)
	}
}

func TestScorer_DomainScoreOverrides(t *testing.T) {
	config := model.DefaultConfig().Credibility
	config.DomainScores = map[string]float64{
		"wikipedia.org":   0.6,
		"trusted.example": 0.95,
		"broken.example":  -3,
	}
	scorer := NewScorer(&config)

	tests := []struct {
		url       string
		wantScore float64
		wantTier  model.CredibilityTier
	}{
		{"https://en.wikipedia.org/wiki/X", 0.6, model.TierUnknown},
		{"https://news.trusted.example/a", 0.95, model.TierFactCheck},
		{"https://broken.example/", 0, model.TierUnreliable},
	}

	for _, tt := range tests {
		score, tier := scorer.Classify(web(tt.url))
		if score != tt.wantScore || tier != tt.wantTier {
			t.Errorf("%s: expected %v/%s, got %v/%s", tt.url, tt.wantScore, tt.wantTier, score, tier)
		}
	}
}

func TestScorer_OverrideKeysNormalizeToSameHost(t *testing.T) {
	config := model.DefaultConfig().Credibility
	config.DomainScores = map[string]float64{
		"www.x.example": 0.3,
		"X.example":     0.4,
		"x.example":     0.9,
		"www.y.example": 0.2,
		"Y.example.":    0.7,
	}

	tests := []struct {
		desc      string
		url       string
		wantScore float64
	}{
		{desc: "normalized key wins", url: "https://x.example/a", wantScore: 0.9},
		{desc: "subdomain uses normalized key", url: "https://news.x.example/a", wantScore: 0.9},
		{desc: "first sorted key wins without a normalized one", url: "https://www.y.example/a", wantScore: 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			for i := 0; i < 20; i++ {
				if got := NewScorer(&config).Score(web(tt.url)); got != tt.wantScore {
					t.Fatalf("Expected %v, got %v on iteration %d", tt.wantScore, got, i)
				}
			}
		})
	}
}

func TestScorer_Deterministic(t *testing.T) {
	scorer := NewScorer(nil)
	item := web("https://www.bbc.co.uk/news/science")

	first := scorer.Score(item)
	for i := 0; i < 50; i++ {
		if got := scorer.Score(item); got != first {
			t.Fatalf("Expected stable score %v, got %v on iteration %d", first, got, i)
		}
	}
}

func TestScoreAll_PreservesOrder(t *testing.T) {
	scorer := NewScorer(nil)
	items := []model.EvidenceItem{
		web("https://random.example.com"),
		web("https://www.snopes.com/x"),
		{Origin: model.OriginKnowledgeBase, SourceID: "kb"},
	}

	scored := scorer.ScoreAll(items)
	if len(scored) != 3 {
		t.Fatalf("Expected 3 scored items, got %d", len(scored))
	}
	for i := range items {
		if scored[i].URL != items[i].URL || scored[i].SourceID != items[i].SourceID {
			t.Errorf("Item %d out of order", i)
		}
		if scored[i].Credibility < 0 || scored[i].Credibility > 1 {
			t.Errorf("Item %d credibility out of range: %v", i, scored[i].Credibility)
		}
	}
}

func TestAggregate(t *testing.T) {
	if got := Aggregate(nil); got != 0 {
		t.Errorf("Expected 0 for no evidence, got %v", got)
	}

	scored := []model.ScoredEvidence{{Credibility: 0.9}, {Credibility: 0.5}, {Credibility: 0.2}}
	if got := Aggregate(scored); got != 0.5333 {
		t.Errorf("Expected 0.5333, got %v", got)
	}
}
