package verdict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/util"
)

// Role is one judge persona
type Role struct {
	Name   string
	System string
}

var (
	judgeRole = Role{
		Name:   "judge",
		System: "You are a fact-checking expert. You weigh evidence by source credibility and never invent sources.",
	}

	skepticRole = Role{
		Name: "skeptic",
		System: "You are a skeptical fact-checker. Look for reasons the claim could be false, exaggerated " +
			"or missing context, and accept it only when the evidence clearly supports it.",
	}

	proponentRole = Role{
		Name: "proponent",
		System: "You are a fact-checker arguing in good faith for the claim. Look for the strongest " +
			"supporting evidence, but concede when the evidence contradicts it.",
	}

	arbiterRole = Role{
		Name: "arbiter",
		System: "You are a neutral arbiter. Weigh supporting and contradicting evidence evenly, " +
			"giving more weight to credible sources.",
	}

	debateRoles = []Role{skepticRole, proponentRole, arbiterRole}
)

const verdictPrompt = `Assess the following claim using only the evidence provided.

Claim: %s

Evidence (sorted by source credibility, highest first):
%s
Answer with a JSON object of this form:
{
  "verdict": "true" | "false" | "misleading" | "unverified",
  "confidence": number between 0.0 and 1.0,
  "explanation": "reasoning that cites evidence by its bracketed index",
  "citations": [numeric indices of the evidence items you relied on]
}

Use "unverified" when the evidence is insufficient or does not address the claim.`

// sortByCredibility returns a copy of evidence ordered by credibility,
// highest first, keeping retrieval order among equals
func sortByCredibility(evidence []model.ScoredEvidence) []model.ScoredEvidence {
	sorted := make([]model.ScoredEvidence, len(evidence))
	copy(sorted, evidence)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Credibility > sorted[j].Credibility
	})
	return sorted
}

// shownCount returns how many leading items of sorted evidence fit within
// maxItems and the token budget. The first item is always shown.
func shownCount(sorted []model.ScoredEvidence, maxItems, budget int, count TokenCounter) int {
	if len(sorted) == 0 {
		return 0
	}
	if maxItems <= 0 || maxItems > len(sorted) {
		maxItems = len(sorted)
	}

	used := 0
	for i := 0; i < maxItems; i++ {
		cost := count(formatEvidence(i, sorted[i], 0))
		if i > 0 && budget > 0 && used+cost > budget {
			return i
		}
		used += cost
	}
	return maxItems
}

// formatEvidence renders one numbered evidence entry; a positive
// snippetLimit truncates the snippet
func formatEvidence(i int, e model.ScoredEvidence, snippetLimit int) string {
	snippet := strings.Join(strings.Fields(e.Snippet), " ")
	if snippetLimit > 0 && len(snippet) > snippetLimit {
		snippet = util.Truncate(snippet, snippetLimit) + "..."
	}

	source := e.SourceID
	if e.URL != "" {
		source = e.URL
	}

	return fmt.Sprintf("[%d] %s (%s, %s, credibility %.2f)\n%s\n",
		i+1, e.Title, source, e.Origin, e.Credibility, snippet)
}

// buildPrompt renders the judge prompt for the first n sorted items. The
// first item alone is truncated to fit the budget if it has to be.
func buildPrompt(claim model.Claim, sorted []model.ScoredEvidence, n, budget int, count TokenCounter) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		entry := formatEvidence(i, sorted[i], 0)
		if i == 0 && budget > 0 && count(entry) > budget {
			entry = formatEvidence(i, sorted[i], budget*3)
		}
		b.WriteString(entry)
		b.WriteString("\n")
	}
	return fmt.Sprintf(verdictPrompt, claim.Text, b.String())
}
