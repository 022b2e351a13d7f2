package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/logging"
	"github.com/ppiankov/truthguard/internal/util"
	"github.com/ppiankov/truthguard/internal/vector"
)

// ContextSearcher supplies knowledge base passages for the LLM strategy
type ContextSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]vector.Match, error)
}

// LLMStrategy asks the LLM endpoint for the claims in a text. It has the
// best recall on implicit claims but is slow and non-deterministic.
type LLMStrategy struct {
	provider llm.Provider
	kb       ContextSearcher // optional
}

// NewLLMStrategy creates an LLM strategy; kb may be nil
func NewLLMStrategy(provider llm.Provider, kb ContextSearcher) *LLMStrategy {
	return &LLMStrategy{provider: provider, kb: kb}
}

// Name returns the strategy name
func (s *LLMStrategy) Name() string {
	return "llm"
}

const extractionSystem = "You extract factual, verifiable claims from text. " +
	"Ignore questions, opinions, instructions and greetings."

const extractionPrompt = `Extract every factual, independently checkable claim from the text below.
Rewrite each claim as a self-contained sentence (replace pronouns with what they refer to).
%s
Text to analyze:
"""
%s
"""

Return a JSON object of the form {"claims": ["claim one.", "claim two."]}.
Return {"claims": []} if the text contains no factual claims.`

type extractionReply struct {
	Claims []json.RawMessage `json:"claims"`
}

// Extract returns the model's claims. Any LLM or decode failure yields no
// claims from this strategy rather than an error.
func (s *LLMStrategy) Extract(ctx context.Context, text string) ([]Candidate, error) {
	log := logging.WithComponent("extract")

	prompt := fmt.Sprintf(extractionPrompt, s.knowledgeContext(ctx, text), text)
	reply, err := llm.CompleteJSON[extractionReply](ctx, s.provider, llm.CompletionRequest{
		System:      extractionSystem,
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   1000,
	}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("LLM claim extraction failed", "error", err)
		return nil, nil
	}

	var out []Candidate
	for _, raw := range reply.Claims {
		claim := decodeClaim(raw)
		if claim == "" {
			continue
		}
		out = append(out, Candidate{Text: normalizeStatement(claim), Offset: locate(text, claim)})
	}
	return out, nil
}

// knowledgeContext formats the top knowledge base passages, if any
func (s *LLMStrategy) knowledgeContext(ctx context.Context, text string) string {
	if s.kb == nil {
		return ""
	}

	matches, err := s.kb.Search(ctx, text, 3)
	if err != nil {
		logging.WithComponent("extract").Debug("knowledge base context unavailable", "error", err)
		return ""
	}
	if len(matches) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\nRelevant knowledge base context (for terminology only, do not extract claims from it):\n")
	for i, m := range matches {
		excerpt := m.Text
		if len(excerpt) > 200 {
			excerpt = util.Truncate(excerpt, 200) + "..."
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, excerpt)
		if title := m.Metadata[vector.MetaTitle]; title != "" {
			fmt.Fprintf(&b, "   Source: %s\n", title)
		}
	}
	return b.String()
}

// decodeClaim accepts either "text" or {"claim": "text"}
func decodeClaim(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var obj struct {
		Claim string `json:"claim"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Claim != "" {
			return strings.TrimSpace(obj.Claim)
		}
		return strings.TrimSpace(obj.Text)
	}
	return ""
}

// locate finds claim in text ignoring case and the terminal period
func locate(text, claim string) int {
	needle := strings.ToLower(strings.TrimRight(strings.TrimSpace(claim), "."))
	if needle == "" {
		return -1
	}
	return strings.Index(strings.ToLower(text), needle)
}
