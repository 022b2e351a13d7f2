package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/score"
)

const (
	summaryExcerptChars = 1500
	summaryTimeout      = 30 * time.Second
)

const summaryPrompt = `You are a fact-checking editor. Write a 2-3 sentence summary of how accurate the document below is, based on the verification results. Do not add facts of your own.

Document excerpt:
%s

Verification results: %d claims checked. %d true, %d false, %d misleading, %d unverified.

Summary:`

// AnalyzeDocument verifies a document stored in the knowledge base
func (p *Pipeline) AnalyzeDocument(ctx context.Context, docID string, mode model.Mode, topK int) (*model.DocumentAnalysis, error) {
	if p.documents == nil {
		return nil, ErrNoDocumentStore
	}

	text, err := p.documents.DocumentText(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", docID, err)
	}

	analysis, err := p.AnalyzeText(ctx, p.documents.DocumentTitle(ctx, docID), text, mode, topK)
	if err != nil {
		return nil, err
	}
	analysis.DocumentID = docID
	return analysis, nil
}

// AnalyzeText verifies ad hoc text and aggregates the run into counts,
// percentages, an accuracy bucket and a narrative summary
func (p *Pipeline) AnalyzeText(ctx context.Context, title, text string, mode model.Mode, topK int) (*model.DocumentAnalysis, error) {
	run, err := p.Run(ctx, model.VerifyRequest{Text: text, Mode: mode, TopK: topK})
	if err != nil {
		return nil, err
	}

	analysis := p.analyzer.Analyze(run)
	analysis.Title = title
	analysis.Summary = p.summarize(ctx, text, analysis)
	return &analysis, nil
}

// summarize asks the LLM for a short narrative and falls back to a
// template when no LLM is configured or the call fails
func (p *Pipeline) summarize(ctx context.Context, text string, analysis model.DocumentAnalysis) string {
	fallback := score.TemplateSummary(analysis.TotalClaims, analysis.Counts)
	if p.summarizer == nil || analysis.TotalClaims == 0 {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	c := analysis.Counts
	resp, err := p.summarizer.Complete(ctx, llm.CompletionRequest{
		Prompt: fmt.Sprintf(summaryPrompt, excerpt(text, summaryExcerptChars), analysis.TotalClaims,
			c[model.VerdictTrue], c[model.VerdictFalse], c[model.VerdictMisleading], c[model.VerdictUnverified]),
		Temperature: 0.5,
		MaxTokens:   150,
	})
	if err != nil {
		p.log.Warn("summary generation failed, using template", "error", err)
		return fallback
	}

	summary := cleanSummary(resp.Text)
	if summary == "" {
		return fallback
	}
	return summary
}

func cleanSummary(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 8 && strings.EqualFold(s[:8], "summary:") {
		s = strings.TrimSpace(s[8:])
	}
	return strings.Trim(s, `"`)
}

// excerpt cuts s to at most n characters without splitting a rune
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
