package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthguard/internal/history"
	"github.com/ppiankov/truthguard/internal/model"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded verification runs",
	Long: `Browse verification runs recorded by the history store.

Runs are recorded when history.backend is memory, redis or postgres.
The memory backend only lives for one command, so use redis or postgres
to keep runs between invocations.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
			records, err := store.List(ctx, historyLimit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tMODE\tCATEGORY\tCLAIMS\tTRUE\tFALSE\tMISLEADING\tUNVERIFIED")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Mode, r.Category, r.ClaimCount,
					r.Counts[model.VerdictTrue], r.Counts[model.VerdictFalse],
					r.Counts[model.VerdictMisleading], r.Counts[model.VerdictUnverified])
			}
			return tw.Flush()
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, store history.Store) error {
			rec, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput != "" {
				return writeOutput(jsonOutput, rec)
			}
			printRun(cmd.OutOrStdout(), rec.Run)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")
	historyShowCmd.Flags().StringVar(&jsonOutput, "json", "", "write the JSON record to this path (- for stdout)")
}

func withHistory(parent context.Context, fn func(ctx context.Context, store history.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	defer cancel()

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("history is disabled (history.backend: none)")
	}
	defer func() { _ = store.Close() }()

	return fn(ctx, store)
}
