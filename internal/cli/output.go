package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/truthguard/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes v as JSON to path, or to stdout when path is "-"
func writeOutput(path string, v interface{}) (err error) {
	if path == "" || path == "-" {
		return writeJSON(os.Stdout, v)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return writeJSON(f, v)
}

func printRun(w io.Writer, run *model.VerificationRun) {
	fmt.Fprintf(w, "\n%s\n  Verification %s (%s, %s)\n%s\n\n", rule, run.ID, run.Mode, run.Category, rule)

	if len(run.Claims) == 0 {
		fmt.Fprintf(w, "  No checkable factual claims found.\n\n")
		return
	}

	if run.Mode == model.ModeCompare {
		for _, mode := range []model.Mode{model.ModeSingle, model.ModeDebate} {
			fmt.Fprintf(w, "── %s ──\n\n", mode)
			printResults(w, run.Claims, run.SubResults[mode])
		}
	} else {
		printResults(w, run.Claims, run.Results)
	}

	fmt.Fprintf(w, "  %d claims in %dms\n\n", len(run.Claims), run.ProcessingMs)
}

func printResults(w io.Writer, claims []model.Claim, results []model.VerdictResult) {
	for i, res := range results {
		fmt.Fprintf(w, "[%d] %s\n", claims[i].ID, claims[i].Text)
		fmt.Fprintf(w, "    %s %s (confidence %.2f, %d sources, credibility %.2f)\n",
			verdictMark(res.Verdict), strings.ToUpper(string(res.Verdict)), res.Confidence,
			res.EvidenceCount, res.AggregateSourceCredibility)
		if res.Explanation != "" {
			fmt.Fprintf(w, "    %s\n", res.Explanation)
		}
		for _, c := range res.Citations {
			ref := c.URL
			if ref == "" {
				ref = c.SourceID
			}
			fmt.Fprintf(w, "      [%d] %s\n", c.Index+1, ref)
		}
		for _, j := range res.Judges {
			if j.Abstained {
				fmt.Fprintf(w, "      %-10s abstained (%s)\n", j.Role, j.Reason)
				continue
			}
			fmt.Fprintf(w, "      %-10s %s %.2f\n", j.Role, j.Verdict, j.Confidence)
		}
		for _, d := range res.Degraded {
			fmt.Fprintf(w, "    ⚠️  %s unavailable: %s\n", d.Source, d.Reason)
		}
		fmt.Fprintln(w)
	}
}

func verdictMark(v model.Verdict) string {
	switch v {
	case model.VerdictTrue:
		return "✓"
	case model.VerdictFalse:
		return "✗"
	case model.VerdictMisleading:
		return "~"
	default:
		return "?"
	}
}

func printAnalysis(w io.Writer, a *model.DocumentAnalysis) {
	if a.Run != nil {
		printRun(w, a.Run)
	}

	title := a.Title
	if title == "" {
		title = "Document"
	}
	fmt.Fprintf(w, "%s\n  %s: %s\n%s\n\n", rule, title, strings.ReplaceAll(string(a.OverallAccuracy), "_", " "), rule)
	fmt.Fprintf(w, "  %s\n\n", a.Summary)

	for _, v := range model.AllVerdicts() {
		fmt.Fprintf(w, "  %-11s %3d  %5.1f%%\n", v, a.Counts[v], a.Percentages[v])
	}
	fmt.Fprintln(w)

	signals := append([]model.Signal(nil), a.Signals...)
	sort.SliceStable(signals, func(i, j int) bool {
		return severityRank(signals[i].Severity) > severityRank(signals[j].Severity)
	})
	for _, s := range signals {
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
	fmt.Fprintln(w)
}

func severityRank(s model.SignalSeverity) int {
	switch s {
	case model.SeverityCritical:
		return 2
	case model.SeverityWarning:
		return 1
	default:
		return 0
	}
}
