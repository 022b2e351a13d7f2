package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/model"
)

var (
	mode       string
	topK       int
	inputFile  string
	htmlInput  bool
	jsonOutput string
	runTimeout time.Duration
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify [text]",
	Short: "Verify the factual claims in a text",
	Long: `Verify extracts claims from the text, retrieves evidence for each one
from web search and the knowledge base, and prints a verdict per claim.

Text comes from the arguments, --file, or stdin when neither is given.

Example:
  truthguard verify "The Earth orbits the Sun."
  truthguard verify --file article.txt --mode debate
  truthguard verify --file page.html --html --json result.json
  echo "Water boils at 100 degrees Celsius." | truthguard verify --mode compare`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addRunFlags(verifyCmd)
}

// addRunFlags registers the flags shared by verify and analyze
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&mode, "mode", string(model.ModeSingle), "verdict mode (single, debate, compare)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "evidence items per source, 1-20 (default from config)")
	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "read text from file")
	cmd.Flags().BoolVar(&htmlInput, "html", false, "treat input as HTML and verify its visible text")
	cmd.Flags().StringVar(&jsonOutput, "json", "", "write the JSON result to this path (- for stdout)")
	cmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall timeout")
}

func runVerify(cmd *cobra.Command, args []string) error {
	text, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

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

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Verifying %d characters in %s mode...\n", len(text), mode)
	}

	run, err := p.Run(ctx, model.VerifyRequest{Text: text, Mode: model.Mode(mode), TopK: topK})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if jsonOutput != "" {
		if err := writeOutput(jsonOutput, run); err != nil {
			return err
		}
		if jsonOutput == "-" {
			return nil
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonOutput)
	}
	printRun(cmd.OutOrStdout(), run)
	return nil
}

// readInput takes text from args, --file, or stdin, in that order
func readInput(args []string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", inputFile, err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if htmlInput {
		visible, err := extract.VisibleText(text)
		if err != nil {
			return "", fmt.Errorf("parse html: %w", err)
		}
		text = visible
	}
	return text, nil
}
