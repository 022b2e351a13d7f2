package score

import (
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/truthguard/internal/model"
)

func results(verdicts ...model.Verdict) []model.VerdictResult {
	out := make([]model.VerdictResult, len(verdicts))
	for i, v := range verdicts {
		out[i] = model.VerdictResult{ClaimID: i + 1, Verdict: v, EvidenceCount: 2, AggregateSourceCredibility: 0.8}
	}
	return out
}

func repeat(v model.Verdict, n int) []model.Verdict {
	out := make([]model.Verdict, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func mix(t, f, m, u int) []model.Verdict {
	var out []model.Verdict
	out = append(out, repeat(model.VerdictTrue, t)...)
	out = append(out, repeat(model.VerdictFalse, f)...)
	out = append(out, repeat(model.VerdictMisleading, m)...)
	out = append(out, repeat(model.VerdictUnverified, u)...)
	return out
}

func TestPercentages_SumTo100(t *testing.T) {
	tests := []struct {
		desc   string
		counts [4]int
	}{
		{desc: "thirds", counts: [4]int{1, 1, 1, 0}},
		{desc: "sevenths", counts: [4]int{3, 2, 1, 1}},
		{desc: "single claim", counts: [4]int{0, 0, 0, 1}},
		{desc: "uneven", counts: [4]int{5, 3, 2, 1}},
		{desc: "many", counts: [4]int{17, 5, 9, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			counts := Counts(results(mix(tt.counts[0], tt.counts[1], tt.counts[2], tt.counts[3])...))
			p := Percentages(counts)

			sum := 0.0
			for _, v := range model.AllVerdicts() {
				sum += p[v]
				if counts[v] == 0 && p[v] != 0 {
					t.Errorf("Expected 0%% for absent verdict %s, got %v", v, p[v])
				}
			}
			if math.Abs(sum-100) > 1e-6 {
				t.Errorf("Expected percentages to sum to 100, got %v (%v)", sum, p)
			}
		})
	}
}

func TestPercentages_NoClaims(t *testing.T) {
	p := Percentages(Counts(nil))
	for _, v := range model.AllVerdicts() {
		if p[v] != 0 {
			t.Errorf("Expected 0 for %s, got %v", v, p[v])
		}
	}
}

func TestBucket(t *testing.T) {
	a := NewAnalyzer(model.AnalysisConfig{})

	tests := []struct {
		desc   string
		counts [4]int
		want   model.AccuracyBucket
	}{
		{desc: "no claims", counts: [4]int{0, 0, 0, 0}, want: model.AccuracyUnknown},
		{desc: "mostly true", counts: [4]int{8, 1, 0, 1}, want: model.AccuracyMostlyAccurate},
		{desc: "mostly false", counts: [4]int{2, 5, 0, 3}, want: model.AccuracyMostlyFalse},
		{desc: "misleading", counts: [4]int{3, 0, 4, 3}, want: model.AccuracyMisleading},
		{desc: "mixed", counts: [4]int{5, 1, 1, 3}, want: model.AccuracyMixed},
		{desc: "unverified", counts: [4]int{2, 1, 1, 6}, want: model.AccuracyUnverified},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			res := results(mix(tt.counts[0], tt.counts[1], tt.counts[2], tt.counts[3])...)
			got := a.Bucket(len(res), Percentages(Counts(res)))
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

// Moving one claim toward false never improves the bucket
func TestBucket_Monotonic(t *testing.T) {
	a := NewAnalyzer(model.AnalysisConfig{})
	const n = 10

	bucketOf := func(c [4]int) model.AccuracyBucket {
		res := results(mix(c[0], c[1], c[2], c[3])...)
		return a.Bucket(len(res), Percentages(Counts(res)))
	}

	// worse[i][j] marks a move from verdict i to the worse verdict j
	moves := [][2]int{
		{0, 1}, {0, 2}, {0, 3}, // true to anything
		{3, 1}, {3, 2}, // unverified to false or misleading
		{2, 1}, // misleading to false
	}

	for tr := 0; tr <= n; tr++ {
		for f := 0; f <= n-tr; f++ {
			for m := 0; m <= n-tr-f; m++ {
				c := [4]int{tr, f, m, n - tr - f - m}
				before := bucketOf(c)
				for _, mv := range moves {
					if c[mv[0]] == 0 {
						continue
					}
					next := c
					next[mv[0]]--
					next[mv[1]]++
					after := bucketOf(next)
					if after.Rank() < before.Rank() {
						t.Fatalf("Moving a claim %d->%d improved %v (%s) to %v (%s)", mv[0], mv[1], c, before, next, after)
					}
				}
			}
		}
	}
}

func TestAnalyze(t *testing.T) {
	res := results(model.VerdictTrue, model.VerdictTrue, model.VerdictFalse)
	res = append(res, model.VerdictResult{
		ClaimID:  4,
		Verdict:  model.VerdictUnverified,
		Degraded: []model.SourceFailure{{Source: model.OriginWeb, Reason: "timeout"}},
	})
	run := &model.VerificationRun{Results: res}

	analysis := NewAnalyzer(model.DefaultConfig().Analysis).Analyze(run)

	if analysis.TotalClaims != 4 {
		t.Errorf("Expected 4 claims, got %d", analysis.TotalClaims)
	}
	if analysis.Counts[model.VerdictTrue] != 2 || analysis.Counts[model.VerdictUnverified] != 1 {
		t.Errorf("Unexpected counts %v", analysis.Counts)
	}
	if analysis.Percentages[model.VerdictTrue] != 50 {
		t.Errorf("Expected 50%% true, got %v", analysis.Percentages[model.VerdictTrue])
	}
	if analysis.OverallAccuracy != model.AccuracyMixed {
		t.Errorf("Expected mixed, got %s", analysis.OverallAccuracy)
	}
	if analysis.Run != run {
		t.Error("Expected run attached")
	}

	types := make(map[model.SignalType]model.Signal)
	for _, s := range analysis.Signals {
		types[s.Type] = s
	}
	for _, want := range []model.SignalType{model.SignalVerdictMix, model.SignalFalseMass, model.SignalEvidenceCoverage, model.SignalSourceCredibility, model.SignalDegradedSources} {
		if _, ok := types[want]; !ok {
			t.Errorf("Expected %s signal", want)
		}
	}
	if types[model.SignalEvidenceCoverage].Severity != model.SeverityWarning {
		t.Errorf("Expected coverage warning, got %s", types[model.SignalEvidenceCoverage].Severity)
	}
	if types[model.SignalSourceCredibility].Data["mean"] != 0.8 {
		t.Errorf("Expected mean credibility 0.8, got %v", types[model.SignalSourceCredibility].Data["mean"])
	}
}

func TestAnalyze_Empty(t *testing.T) {
	analysis := NewAnalyzer(model.AnalysisConfig{}).Analyze(&model.VerificationRun{})
	if analysis.OverallAccuracy != model.AccuracyUnknown {
		t.Errorf("Expected unknown, got %s", analysis.OverallAccuracy)
	}
	for _, s := range analysis.Signals {
		if s.Type == model.SignalDegradedSources {
			t.Error("Expected no degraded signal without failures")
		}
	}
}

func TestTemplateSummary(t *testing.T) {
	tests := []struct {
		desc   string
		counts [4]int
		want   string
	}{
		{desc: "none", counts: [4]int{}, want: "No checkable factual claims"},
		{desc: "accurate", counts: [4]int{3, 1, 0, 0}, want: "mostly accurate"},
		{desc: "false", counts: [4]int{0, 2, 0, 1}, want: "significant false information"},
		{desc: "tie", counts: [4]int{1, 1, 0, 0}, want: "mixed accuracy"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			res := results(mix(tt.counts[0], tt.counts[1], tt.counts[2], tt.counts[3])...)
			got := TemplateSummary(len(res), Counts(res))
			if !strings.Contains(got, tt.want) {
				t.Errorf("Expected summary containing %q, got %q", tt.want, got)
			}
		})
	}

	if got := TemplateSummary(1, Counts(results(model.VerdictTrue))); !strings.HasPrefix(got, "Analyzed 1 claim:") {
		t.Errorf("Expected singular claim, got %q", got)
	}
}
