package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/truthguard/internal/model"
)

// Analyzer turns a verification run into document-level statistics
type Analyzer struct {
	thresholds model.AnalysisConfig
}

// NewAnalyzer creates an analyzer with the given bucket thresholds.
// Zero thresholds take the defaults.
func NewAnalyzer(thresholds model.AnalysisConfig) *Analyzer {
	defaults := model.DefaultConfig().Analysis
	if thresholds.MostlyAccurateTrue <= 0 {
		thresholds.MostlyAccurateTrue = defaults.MostlyAccurateTrue
	}
	if thresholds.MostlyFalseFalse <= 0 {
		thresholds.MostlyFalseFalse = defaults.MostlyFalseFalse
	}
	if thresholds.MisleadingShare <= 0 {
		thresholds.MisleadingShare = defaults.MisleadingShare
	}
	if thresholds.MixedTrue <= 0 {
		thresholds.MixedTrue = defaults.MixedTrue
	}
	return &Analyzer{thresholds: thresholds}
}

// Analyze computes counts, percentages, the accuracy bucket and signals.
// The summary is left for the caller.
func (a *Analyzer) Analyze(run *model.VerificationRun) model.DocumentAnalysis {
	counts := Counts(run.Results)
	percentages := Percentages(counts)

	analysis := model.DocumentAnalysis{
		TotalClaims:     len(run.Results),
		Counts:          counts,
		Percentages:     percentages,
		OverallAccuracy: a.Bucket(len(run.Results), percentages),
		Run:             run,
	}

	analysis.Signals = append(analysis.Signals,
		verdictMixSignal(analysis.TotalClaims, counts, percentages),
		a.falseMassSignal(analysis.TotalClaims, percentages),
		evidenceCoverageSignal(run.Results),
		credibilitySignal(run.Results),
	)
	if s, ok := degradedSignal(run.Results); ok {
		analysis.Signals = append(analysis.Signals, s)
	}
	return analysis
}

// Counts tallies verdicts; every verdict value is present in the map
func Counts(results []model.VerdictResult) map[model.Verdict]int {
	counts := make(map[model.Verdict]int, 4)
	for _, v := range model.AllVerdicts() {
		counts[v] = 0
	}
	for _, r := range results {
		v := r.Verdict
		if !v.Valid() {
			v = model.VerdictUnverified
		}
		counts[v]++
	}
	return counts
}

// Percentages converts counts to percentages with one decimal that sum to
// exactly 100 (largest remainder). All zero when there are no claims.
func Percentages(counts map[model.Verdict]int) map[model.Verdict]float64 {
	verdicts := model.AllVerdicts()
	out := make(map[model.Verdict]float64, len(verdicts))

	total := 0
	for _, v := range verdicts {
		total += counts[v]
	}
	if total == 0 {
		for _, v := range verdicts {
			out[v] = 0
		}
		return out
	}

	// Work in tenths of a percent
	const scale = 1000
	units := make(map[model.Verdict]int, len(verdicts))
	remainders := make([]model.Verdict, 0, len(verdicts))
	assigned := 0
	for _, v := range verdicts {
		units[v] = counts[v] * scale / total
		assigned += units[v]
		remainders = append(remainders, v)
	}
	sort.SliceStable(remainders, func(i, j int) bool {
		return counts[remainders[i]]*scale%total > counts[remainders[j]]*scale%total
	})
	for i := 0; assigned < scale; i++ {
		units[remainders[i%len(remainders)]]++
		assigned++
	}

	for _, v := range verdicts {
		out[v] = float64(units[v]) / 10
	}
	return out
}

// Bucket classifies the claim mix. Buckets are checked from best to worst
// evidence of accuracy; the misleading bucket uses the combined false and
// misleading share so that shifting mass toward false never improves the
// bucket.
func (a *Analyzer) Bucket(total int, p map[model.Verdict]float64) model.AccuracyBucket {
	t := a.thresholds
	switch {
	case total == 0:
		return model.AccuracyUnknown
	case p[model.VerdictTrue] >= t.MostlyAccurateTrue:
		return model.AccuracyMostlyAccurate
	case p[model.VerdictFalse] >= t.MostlyFalseFalse:
		return model.AccuracyMostlyFalse
	case p[model.VerdictFalse]+p[model.VerdictMisleading] >= t.MisleadingShare:
		return model.AccuracyMisleading
	case p[model.VerdictTrue] >= t.MixedTrue:
		return model.AccuracyMixed
	default:
		return model.AccuracyUnverified
	}
}

// TemplateSummary is the deterministic narrative used when no language
// model summary is available
func TemplateSummary(total int, counts map[model.Verdict]int) string {
	if total == 0 {
		return "No checkable factual claims were found in this text."
	}

	trueCount, falseCount := counts[model.VerdictTrue], counts[model.VerdictFalse]
	base := fmt.Sprintf("Analyzed %d %s: %d true, %d false, %d misleading, %d unverified.",
		total, plural(total, "claim", "claims"), trueCount, falseCount,
		counts[model.VerdictMisleading], counts[model.VerdictUnverified])

	switch {
	case trueCount > falseCount:
		return base + " The content appears to be mostly accurate."
	case falseCount > trueCount:
		return base + " The content contains significant false information."
	default:
		return base + " The content has mixed accuracy."
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func verdictMixSignal(total int, counts map[model.Verdict]int, p map[model.Verdict]float64) model.Signal {
	severity := model.SeverityInfo
	if total == 0 {
		severity = model.SeverityWarning
	}
	return model.Signal{
		Type:     model.SignalVerdictMix,
		Severity: severity,
		Description: fmt.Sprintf("%d claims: %.1f%% true, %.1f%% false, %.1f%% misleading, %.1f%% unverified",
			total, p[model.VerdictTrue], p[model.VerdictFalse], p[model.VerdictMisleading], p[model.VerdictUnverified]),
		Data: map[string]interface{}{
			"total":       total,
			"counts":      counts,
			"percentages": p,
			"formula":     "largest remainder rounding of count / total * 100 to 0.1",
		},
	}
}

func (a *Analyzer) falseMassSignal(total int, p map[model.Verdict]float64) model.Signal {
	mass := p[model.VerdictFalse] + p[model.VerdictMisleading]

	severity := model.SeverityInfo
	if p[model.VerdictFalse] >= a.thresholds.MostlyFalseFalse {
		severity = model.SeverityCritical
	} else if mass >= a.thresholds.MisleadingShare {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalFalseMass,
		Severity:    severity,
		Description: fmt.Sprintf("False or misleading share: %.1f%%", mass),
		Data: map[string]interface{}{
			"false":      p[model.VerdictFalse],
			"misleading": p[model.VerdictMisleading],
			"mass":       mass,
			"total":      total,
			"formula":    "false% + misleading%",
		},
	}
}

func evidenceCoverageSignal(results []model.VerdictResult) model.Signal {
	without := 0
	for _, r := range results {
		if r.EvidenceCount == 0 {
			without++
		}
	}

	ratio := 0.0
	if len(results) > 0 {
		ratio = float64(len(results)-without) / float64(len(results))
	}

	severity := model.SeverityInfo
	if len(results) > 0 && ratio < 0.5 {
		severity = model.SeverityCritical
	} else if without > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalEvidenceCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("%d of %d claims had evidence", len(results)-without, len(results)),
		Data: map[string]interface{}{
			"claims":           len(results),
			"without_evidence": without,
			"coverage":         ratio,
			"formula":          "claims_with_evidence / claims",
		},
	}
}

func credibilitySignal(results []model.VerdictResult) model.Signal {
	var sum float64
	n := 0
	for _, r := range results {
		if r.EvidenceCount > 0 {
			sum += r.AggregateSourceCredibility
			n++
		}
	}

	mean := 0.0
	if n > 0 {
		mean = math.Round(sum/float64(n)*10000) / 10000
	}

	severity := model.SeverityInfo
	if n > 0 && mean < 0.5 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalSourceCredibility,
		Severity:    severity,
		Description: fmt.Sprintf("Mean source credibility: %.2f", mean),
		Data: map[string]interface{}{
			"claims_with_evidence": n,
			"mean":                 mean,
			"formula":              "mean(aggregate_source_credibility) over claims with evidence",
		},
	}
}

func degradedSignal(results []model.VerdictResult) (model.Signal, bool) {
	bySource := make(map[model.EvidenceOrigin]int)
	affected := 0
	for _, r := range results {
		if len(r.Degraded) > 0 {
			affected++
		}
		for _, f := range r.Degraded {
			bySource[f.Source]++
		}
	}
	if affected == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalDegradedSources,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Evidence sources failed for %d of %d claims", affected, len(results)),
		Data: map[string]interface{}{
			"affected_claims": affected,
			"failures":        bySource,
		},
	}, true
}
