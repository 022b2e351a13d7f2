package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/cache"
	"github.com/ppiankov/truthguard/internal/extract"
	"github.com/ppiankov/truthguard/internal/pipeline"
	"github.com/ppiankov/truthguard/internal/vector"
)

var (
	docID    string
	docTitle string
	docURL   string
	docTags  []string
	docTrust float64
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Add a document to the knowledge base",
	Long: `Ingest chunks a document, embeds every chunk with the configured
embedding model and stores it in the knowledge base. Ingested documents
are searched alongside the web for evidence and can be analyzed with
'truthguard analyze <document-id>'.

The same embedding model must be used for ingestion and verification.

Example:
  truthguard ingest who-factsheet.txt --title "WHO fact sheet" --url https://www.who.int/... --trust 0.9
  truthguard ingest page.html --html --tags health,vaccines`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Manage the knowledge base",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledgeBase(cmd.Context(), func(ctx context.Context, kb *vector.KnowledgeBase) error {
			docs, err := kb.List(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Knowledge base is empty.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCHUNKS")
			for _, d := range docs {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", d.ID, d.Title, d.ChunkCount)
			}
			return tw.Flush()
		})
	},
}

var kbDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Remove a document from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withKnowledgeBase(cmd.Context(), func(ctx context.Context, kb *vector.KnowledgeBase) error {
			if err := kb.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✓ Deleted %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(kbCmd)
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbDeleteCmd)

	ingestCmd.Flags().StringVar(&docID, "id", "", "document id (generated when empty)")
	ingestCmd.Flags().StringVar(&docTitle, "title", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&docURL, "url", "", "source URL cited with this document's evidence")
	ingestCmd.Flags().StringSliceVar(&docTags, "tags", nil, "comma-separated tags")
	ingestCmd.Flags().Float64Var(&docTrust, "trust", -1, "credibility override for this document, 0-1 (default: knowledge base trust)")
	ingestCmd.Flags().BoolVar(&htmlInput, "html", false, "treat the file as HTML and ingest its visible text")
}

func runIngest(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	text := string(data)
	if htmlInput {
		if text, err = extract.VisibleText(text); err != nil {
			return fmt.Errorf("parse html: %w", err)
		}
	}

	doc := vector.Document{ID: docID, Title: docTitle, URL: docURL, Tags: docTags, Text: text}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	if docTrust >= 0 {
		if docTrust > 1 {
			return fmt.Errorf("--trust must be between 0 and 1, got %v", docTrust)
		}
		trust := docTrust
		doc.Trust = &trust
	}

	return withKnowledgeBase(cmd.Context(), func(ctx context.Context, kb *vector.KnowledgeBase) error {
		id, err := kb.Ingest(ctx, doc)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Ingested %s\n", doc.Title)
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	})
}

func withKnowledgeBase(parent context.Context, fn func(ctx context.Context, kb *vector.KnowledgeBase) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, 10*time.Minute)
	defer cancel()

	kb, err := pipeline.OpenKnowledgeBase(ctx, cfg, cache.New(cfg.Cache))
	if err != nil {
		return err
	}
	if kb == nil {
		return fmt.Errorf("knowledge base is disabled (knowledge.backend: none) or no embedding provider is configured")
	}
	defer func() { _ = kb.Close() }()

	return fn(ctx, kb)
}
