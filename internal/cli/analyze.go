package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/pipeline"
)

var analyzeTitle string

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [document-id]",
	Short: "Analyze the overall accuracy of a document",
	Long: `Analyze verifies every claim in a document and summarizes the result:
verdict counts and percentages, an overall accuracy bucket
(mostly_accurate, mixed, unverified, misleading, mostly_false, unknown),
a short narrative summary and diagnostic signals.

With a document id the text is loaded from the knowledge base (see
'truthguard ingest'). Otherwise text comes from --file or stdin.

Example:
  truthguard analyze doc_1a2b3c4d
  truthguard analyze --file report.txt --title "Quarterly report"
  truthguard analyze --file page.html --html --mode debate --json analysis.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addRunFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "document title for ad hoc text")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), runTimeout)
	defer cancel()

	p, cleanup, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var analysis *model.DocumentAnalysis
	if len(args) == 1 {
		analysis, err = p.AnalyzeDocument(ctx, args[0], model.Mode(mode), topK)
	} else {
		analysis, err = analyzeInput(ctx, p, cmd)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if jsonOutput != "" {
		if err := writeOutput(jsonOutput, analysis); err != nil {
			return err
		}
		if jsonOutput == "-" {
			return nil
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonOutput)
	}
	printAnalysis(cmd.OutOrStdout(), analysis)
	return nil
}

func analyzeInput(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) (*model.DocumentAnalysis, error) {
	text, err := readInput(nil, cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	title := analyzeTitle
	if title == "" {
		title = inputFile
	}
	return p.AnalyzeText(ctx, title, text, model.Mode(mode), topK)
}
