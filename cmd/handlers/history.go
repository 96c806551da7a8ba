package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inboxbrief/internal/core"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/store"
)

// NewHistoryCmd creates the history command
func NewHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent digest runs and store statistics",
		Run: func(cmd *cobra.Command, args []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			prune, _ := cmd.Flags().GetDuration("prune")
			if err := runHistory(cmd.Context(), cmd.OutOrStdout(), limit, prune); err != nil {
				logger.Error("Failed to show history", err)
				os.Exit(1)
			}
		},
	}

	historyCmd.Flags().Int("limit", 10, "Number of runs to show")
	historyCmd.Flags().Duration("prune", 0, "Delete runs older than this first (e.g. 720h)")
	return historyCmd
}

func runHistory(ctx context.Context, out io.Writer, limit int, prune time.Duration) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if prune > 0 {
		removed, err := st.CleanupOldRuns(ctx, prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🧹 Removed %d old runs\n", removed)
	}

	runs, err := st.RecentRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load run history: %w", err)
	}
	stats, err := st.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store statistics: %w", err)
	}

	printHistory(out, runs, stats, cfg.Output.Location())
	return nil
}

func printHistory(out io.Writer, runs []core.RunRecord, stats *store.Stats, loc *time.Location) {
	fmt.Fprintln(out, "📊 Digest History")
	fmt.Fprintln(out, "=================")

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
	}
	for _, r := range runs {
		duration := r.FinishedAt.Sub(r.StartedAt).Round(time.Second)
		fmt.Fprintf(out, "%s  %-8s  %d candidates, %d summarized, %d skipped, %d failed\n",
			r.StartedAt.In(loc).Format("2006-01-02 15:04"), duration,
			r.Candidates, r.Summarized, r.Skipped, r.Failed)
		if len(r.Themes) > 0 {
			fmt.Fprintf(out, "                    themes: %s\n", strings.Join(r.Themes, ", "))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "🗂️  Runs stored: %d\n", stats.RunCount)
	fmt.Fprintf(out, "🔑 Properties: %d\n", stats.PropertyCount)
	fmt.Fprintf(out, "💾 Store size: %.2f KB\n", float64(stats.Size)/1024)
	if !stats.LastUpdated.IsZero() {
		fmt.Fprintf(out, "📅 Last updated: %s\n", stats.LastUpdated.In(loc).Format("2006-01-02 15:04:05"))
	}
}
