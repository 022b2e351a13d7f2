package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/ppiankov/truthguard/internal/worker"
)

var (
	concurrency  int
	batchOutput  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many texts from a file in parallel",
	Long: `Batch verifies every line of the input file as a separate text:
- Blank lines, duplicates and lines starting with # are skipped
- Texts are verified concurrently with a shared rate limit
- One JSON result per line is written in input order

Example:
  truthguard batch claims.txt
  truthguard batch claims.txt --concurrency 8 --output results.jsonl
  truthguard batch claims.txt --mode debate --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent texts (default from config)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "-", "JSON lines output path (- for stdout)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&mode, "mode", string(model.ModeSingle), "verdict mode (single, debate, compare)")
	batchCmd.Flags().IntVar(&topK, "top-k", 0, "evidence items per source, 1-20 (default from config)")
}

// batchLine is one line of batch output
type batchLine struct {
	Line  int                    `json:"line"`
	Text  string                 `json:"text"`
	Run   *model.VerificationRun `json:"run,omitempty"`
	Error string                 `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) (err error) {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency.Workers
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n%s\n  TruthGuard Batch Verification\n%s\n\n", rule, rule)
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", mode)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n\n", batchTimeout)

	p, cleanup, err := openPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var out io.Writer = cmd.OutOrStdout()
	if batchOutput != "-" {
		f, err := os.Create(batchOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", batchOutput, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", batchOutput, closeErr)
			}
		}()
		out = f
	}

	processor := worker.NewBatchProcessor(p, concurrency, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	fmt.Fprintf(os.Stderr, "⚙️  Verifying texts with %d workers...\n\n", concurrency)
	results, err := processor.ProcessFile(ctx, file, model.Mode(mode), topK)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	enc := json.NewEncoder(out)
	successCount, failureCount, claimCount := 0, 0, 0
	for _, result := range results {
		line := batchLine{Line: result.Line, Text: result.Text, Run: result.Run}
		if result.Error != nil {
			failureCount++
			line.Error = result.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ line %d: %v\n", result.Line, result.Error)
		} else {
			successCount++
			claimCount += len(result.Run.Claims)
			if verbose {
				fmt.Fprintf(os.Stderr, "✓ line %d: %d claims\n", result.Line, len(result.Run.Claims))
			}
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n%s\n  Batch Complete\n%s\n\n", rule, rule)
	fmt.Fprintf(os.Stderr, "  Total:     %d texts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Claims:    %d\n\n", claimCount)

	return nil
}
