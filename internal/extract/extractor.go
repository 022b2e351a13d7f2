package extract

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/model"
)

// Extractor turns text into an ordered list of claims by running its
// strategies in order and merging their output
type Extractor struct {
	strategies []Strategy
	maxClaims  int
}

// New builds the extractor described by cfg. The LLM strategy is added only
// when enabled and a provider is available; kb may be nil.
func New(cfg model.ExtractionConfig, provider llm.Provider, kb ContextSearcher) *Extractor {
	var strategies []Strategy
	if cfg.Rule {
		strategies = append(strategies, NewRuleStrategy(cfg.MinLength, cfg.MaxLength))
	}
	if cfg.LLM && provider != nil {
		if !cfg.UseKB {
			kb = nil
		}
		strategies = append(strategies, NewLLMStrategy(provider, kb))
	}
	if len(strategies) == 0 {
		strategies = append(strategies, NewRuleStrategy(cfg.MinLength, cfg.MaxLength))
	}
	return NewWithStrategies(cfg.MaxClaims, strategies...)
}

// NewWithStrategies creates an extractor over explicit strategies
func NewWithStrategies(maxClaims int, strategies ...Strategy) *Extractor {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	return &Extractor{strategies: strategies, maxClaims: maxClaims}
}

// Strategies returns the names of the enabled strategies
func (e *Extractor) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

type tagged struct {
	Candidate
	strategy string
	order    int
}

// Extract returns claims in order of appearance with 1-based ids. Only
// empty input is an error; text without factual statements yields no claims.
func (e *Extractor) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &model.ExtractionError{Reason: "input text is empty"}
	}

	var all []tagged
	for _, s := range e.strategies {
		candidates, err := s.Extract(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logging.WithComponent("extract").Warn("strategy failed", "strategy", s.Name(), "error", err)
			continue
		}
		for _, c := range candidates {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			all = append(all, tagged{Candidate: c, strategy: s.Name(), order: len(all)})
		}
	}

	unique := dedupe(all)

	// Located claims by source position, unlocated ones after them in strategy order
	sort.SliceStable(unique, func(i, j int) bool {
		a, b := unique[i], unique[j]
		if (a.Offset < 0) != (b.Offset < 0) {
			return a.Offset >= 0
		}
		if a.Offset != b.Offset {
			return a.Offset < b.Offset
		}
		return a.order < b.order
	})

	if len(unique) > e.maxClaims {
		unique = unique[:e.maxClaims]
	}

	claims := make([]model.Claim, len(unique))
	for i, c := range unique {
		claims[i] = model.Claim{
			ID:       i + 1,
			Text:     c.Text,
			Ordinal:  i,
			Strategy: c.strategy,
		}
	}
	return claims, nil
}

// dedupe keeps the first of near-identical candidates: equal normalized
// text, containment between long claims, or token overlap >= 0.8
func dedupe(candidates []tagged) []tagged {
	var kept []tagged
	var keys []string
	var tokenSets []map[string]bool

	for _, c := range candidates {
		key := dedupeKey(c.Text)
		tokens := tokenSet(key)

		duplicate := false
		for i, k := range keys {
			if nearDuplicate(key, k, tokens, tokenSets[i]) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		kept = append(kept, c)
		keys = append(keys, key)
		tokenSets = append(tokenSets, tokens)
	}
	return kept
}

func nearDuplicate(a, b string, ta, tb map[string]bool) bool {
	if a == b {
		return true
	}
	if len(a) > 20 && len(b) > 20 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return true
	}
	return jaccard(ta, tb) >= 0.8
}

// dedupeKey lowercases and strips punctuation
func dedupeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(key string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(key) {
		set[t] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
