package credibility

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

// factCheckPath marks the fact-check section of a news outlet
var factCheckPath = regexp.MustCompile(`(?i)/fact-?check`)

// academicSuffixes are treated as primary sources
var academicSuffixes = []string{".gov", ".mil", ".edu", ".ac.uk", ".edu.au", ".gov.uk"}

// Scorer assigns a credibility in [0,1] to evidence items. It is pure and
// deterministic: the same item always receives the same score.
type Scorer struct {
	config     *model.CredibilityConfig
	factCheck  map[string]bool
	primary    map[string]bool
	secondary  map[string]bool
	unreliable map[string]bool
	overrides  map[string]float64 // DomainScores keyed by normalized host
}

// NewScorer creates a scorer from the credibility table
func NewScorer(config *model.CredibilityConfig) *Scorer {
	if config == nil {
		config = &model.DefaultConfig().Credibility
	}

	return &Scorer{
		config:     config,
		factCheck:  domainSet(config.FactCheckDomains),
		primary:    domainSet(config.PrimaryDomains),
		secondary:  domainSet(config.SecondaryDomains),
		unreliable: domainSet(config.UnreliableDomains),
		overrides:  overrideSet(config.DomainScores),
	}
}

// overrideSet normalizes override keys. When several keys name the same
// host, the one already in normalized form wins, then the first in sorted order.
func overrideSet(scores map[string]float64) map[string]float64 {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make(map[string]float64, len(scores))
	canonical := make(map[string]bool, len(scores))
	for _, k := range keys {
		host := normalizeHost(k)
		if host == "" || canonical[host] {
			continue
		}
		if _, seen := set[host]; seen && k != host {
			continue
		}
		set[host] = scores[k]
		canonical[host] = k == host
	}
	return set
}

func domainSet(domains []string) map[string]bool {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		set[normalizeHost(d)] = true
	}
	return set
}

// Score returns the credibility of one item
func (s *Scorer) Score(item model.EvidenceItem) float64 {
	score, _ := s.Classify(item)
	return score
}

// Classify returns the credibility of one item and the tier that produced it
func (s *Scorer) Classify(item model.EvidenceItem) (float64, model.CredibilityTier) {
	if item.Origin == model.OriginKnowledgeBase {
		if item.Trust != nil {
			return clamp(*item.Trust), model.TierKnowledgeBase
		}
		return clamp(s.config.KBBaseTrust), model.TierKnowledgeBase
	}

	host, path := splitURL(item.URL)
	if host == "" {
		host = normalizeHost(item.SourceID)
	}
	if host == "" {
		return clamp(s.config.UnknownScore), model.TierUnknown
	}

	// Explicit overrides win
	if score, ok := lookupScore(s.overrides, host); ok {
		return clamp(score), s.tierForScore(score)
	}

	if matchDomain(s.unreliable, host) {
		return clamp(s.config.UnreliableScore), model.TierUnreliable
	}
	if matchDomain(s.factCheck, host) {
		return clamp(s.config.FactCheckScore), model.TierFactCheck
	}
	if matchDomain(s.secondary, host) && factCheckPath.MatchString(path) {
		return clamp(s.config.FactCheckScore), model.TierFactCheck
	}
	if matchDomain(s.primary, host) {
		return clamp(s.config.PrimaryScore), model.TierPrimary
	}
	for _, suffix := range academicSuffixes {
		if strings.HasSuffix(host, suffix) {
			return clamp(s.config.PrimaryScore), model.TierPrimary
		}
	}
	if matchDomain(s.secondary, host) {
		return clamp(s.config.SecondaryScore), model.TierSecondary
	}

	return clamp(s.config.UnknownScore), model.TierUnknown
}

// ScoreAll scores items, preserving input order
func (s *Scorer) ScoreAll(items []model.EvidenceItem) []model.ScoredEvidence {
	scored := make([]model.ScoredEvidence, len(items))
	for i, item := range items {
		score, tier := s.Classify(item)
		scored[i] = model.ScoredEvidence{EvidenceItem: item, Credibility: score, Tier: tier}
	}
	return scored
}

// Aggregate returns the mean credibility of scored, or 0 when empty
func Aggregate(scored []model.ScoredEvidence) float64 {
	if len(scored) == 0 {
		return 0
	}
	var sum float64
	for _, e := range scored {
		sum += e.Credibility
	}
	return math.Round(sum/float64(len(scored))*10000) / 10000
}

// tierForScore labels an explicit override by the band it falls in
func (s *Scorer) tierForScore(score float64) model.CredibilityTier {
	switch {
	case score >= s.config.FactCheckScore:
		return model.TierFactCheck
	case score >= s.config.PrimaryScore:
		return model.TierPrimary
	case score >= s.config.SecondaryScore:
		return model.TierSecondary
	case score <= s.config.UnreliableScore:
		return model.TierUnreliable
	default:
		return model.TierUnknown
	}
}

// matchDomain reports whether host equals a listed domain or is a subdomain of one
func matchDomain(set map[string]bool, host string) bool {
	if set[host] {
		return true
	}
	for domain := range set {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// lookupScore finds the override for host or its closest parent domain
func lookupScore(scores map[string]float64, host string) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	for h := host; h != ""; {
		if score, ok := scores[h]; ok {
			return score, true
		}
		dot := strings.IndexByte(h, '.')
		if dot < 0 {
			break
		}
		h = h[dot+1:]
	}
	return 0, false
}

func splitURL(rawURL string) (host, path string) {
	if rawURL == "" {
		return "", ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	return normalizeHost(parsed.Hostname()), parsed.Path
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
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
