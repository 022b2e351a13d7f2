package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/truthguard/internal/llm"
	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/vector"
)

// verdictByKeyword marks claims mentioning cheese false, everything else true
func verdictByKeyword() *fakeSynthesizer {
	return &fakeSynthesizer{fn: func(claim model.Claim, evidence []model.ScoredEvidence, mode model.Mode) model.VerdictResult {
		v := model.VerdictTrue
		if strings.Contains(claim.Text, "cheese") {
			v = model.VerdictFalse
		}
		return model.VerdictResult{ClaimID: claim.ID, Verdict: v, Confidence: 0.9, Mode: mode, EvidenceCount: len(evidence)}
	}}
}

const mixedText = "The Earth orbits the Sun. The Moon is made of green cheese. Water boils at 100 degrees Celsius at sea level."

type summaryProvider struct {
	reply string
	err   error
	req   llm.CompletionRequest
}

func (s *summaryProvider) Name() string                         { return "summary" }
func (s *summaryProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *summaryProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Text: s.reply}, nil
}

func TestAnalyzeText(t *testing.T) {
	p := New(ruleExtractor(), &fakeRetriever{}, scorer(), verdictByKeyword())

	analysis, err := p.AnalyzeText(context.Background(), "Sample", mixedText, model.ModeSingle, 0)
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}

	if analysis.TotalClaims != 3 {
		t.Fatalf("Expected 3 claims, got %d", analysis.TotalClaims)
	}
	if analysis.Counts[model.VerdictTrue] != 2 || analysis.Counts[model.VerdictFalse] != 1 {
		t.Errorf("Unexpected counts: %v", analysis.Counts)
	}

	sum := 0.0
	for _, pct := range analysis.Percentages {
		sum += pct
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("Expected percentages to sum to 100, got %v", sum)
	}

	if analysis.Title != "Sample" {
		t.Errorf("Expected title Sample, got %s", analysis.Title)
	}
	if !strings.HasPrefix(analysis.Summary, "Analyzed 3 claims") {
		t.Errorf("Expected template summary, got %q", analysis.Summary)
	}
	if analysis.Run == nil || len(analysis.Run.Results) != 3 {
		t.Error("Expected the run attached to the analysis")
	}
}

func TestAnalyzeText_LLMSummary(t *testing.T) {
	tests := []struct {
		desc     string
		provider *summaryProvider
		want     string
	}{
		{
			desc:     "prefix stripped",
			provider: &summaryProvider{reply: "Summary: The document is largely accurate but repeats one myth."},
			want:     "The document is largely accurate but repeats one myth.",
		},
		{
			desc:     "failure falls back to template",
			provider: &summaryProvider{err: errors.New("rate limited")},
			want:     "Analyzed 3 claims",
		},
		{
			desc:     "empty reply falls back to template",
			provider: &summaryProvider{reply: "  "},
			want:     "Analyzed 3 claims",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			p := New(ruleExtractor(), &fakeRetriever{}, scorer(), verdictByKeyword(), WithSummarizer(tt.provider))

			analysis, err := p.AnalyzeText(context.Background(), "", mixedText, model.ModeSingle, 0)
			if err != nil {
				t.Fatalf("AnalyzeText failed: %v", err)
			}
			if !strings.HasPrefix(analysis.Summary, tt.want) {
				t.Errorf("Expected summary starting %q, got %q", tt.want, analysis.Summary)
			}
			if tt.provider.req.Temperature != 0.5 || tt.provider.req.MaxTokens != 150 {
				t.Errorf("Expected temperature 0.5 and 150 tokens, got %v and %d", tt.provider.req.Temperature, tt.provider.req.MaxTokens)
			}
			if !strings.Contains(tt.provider.req.Prompt, "2 true, 1 false") {
				t.Errorf("Expected counts in the prompt, got %q", tt.provider.req.Prompt)
			}
		})
	}
}

type fakeDocuments struct {
	docs map[string]string
}

func (f *fakeDocuments) DocumentText(ctx context.Context, docID string) (string, error) {
	text, ok := f.docs[docID]
	if !ok {
		return "", vector.ErrDocumentNotFound
	}
	return text, nil
}

func (f *fakeDocuments) DocumentTitle(ctx context.Context, docID string) string {
	return "Title of " + docID
}

func TestAnalyzeDocument(t *testing.T) {
	docs := &fakeDocuments{docs: map[string]string{"doc_1": mixedText}}
	p := New(ruleExtractor(), &fakeRetriever{}, scorer(), verdictByKeyword(), WithDocuments(docs))

	analysis, err := p.AnalyzeDocument(context.Background(), "doc_1", model.ModeSingle, 3)
	if err != nil {
		t.Fatalf("AnalyzeDocument failed: %v", err)
	}
	if analysis.DocumentID != "doc_1" || analysis.Title != "Title of doc_1" {
		t.Errorf("Unexpected document fields: %q %q", analysis.DocumentID, analysis.Title)
	}
	if analysis.OverallAccuracy == model.AccuracyUnknown {
		t.Errorf("Expected a judged bucket, got %s", analysis.OverallAccuracy)
	}

	if _, err := p.AnalyzeDocument(context.Background(), "missing", model.ModeSingle, 3); !errors.Is(err, vector.ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got %v", err)
	}
}

func TestAnalyzeDocument_NoStore(t *testing.T) {
	p := New(ruleExtractor(), &fakeRetriever{}, scorer(), verdictByKeyword())
	if _, err := p.AnalyzeDocument(context.Background(), "doc_1", model.ModeSingle, 3); !errors.Is(err, ErrNoDocumentStore) {
		t.Errorf("Expected ErrNoDocumentStore, got %v", err)
	}
}

func TestAnalyzeText_NoClaims(t *testing.T) {
	p := New(ruleExtractor(), &fakeRetriever{}, scorer(), verdictByKeyword())

	analysis, err := p.AnalyzeText(context.Background(), "", "Hello there!", model.ModeSingle, 0)
	if err != nil {
		t.Fatalf("AnalyzeText failed: %v", err)
	}
	if analysis.OverallAccuracy != model.AccuracyUnknown {
		t.Errorf("Expected unknown bucket, got %s", analysis.OverallAccuracy)
	}
}
