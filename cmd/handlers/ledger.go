package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"inboxbrief/internal/config"
	"inboxbrief/internal/ledger"
	"inboxbrief/internal/logger"
	"inboxbrief/internal/store"
)

// NewLedgerCmd creates the ledger management command
func NewLedgerCmd() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or reset the processed-message ledger",
		Long:  `The ledger remembers which messages were already summarized or skipped so later runs leave them alone.`,
	}

	ledgerCmd.AddCommand(newLedgerShowCmd())
	ledgerCmd.AddCommand(newLedgerResetCmd())

	return ledgerCmd
}

func newLedgerShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "List the recorded message IDs, oldest first",
		Run: func(cmd *cobra.Command, args []string) {
			limit, _ := cmd.Flags().GetInt("limit")
			if err := runLedgerShow(cmd.Context(), cmd.OutOrStdout(), limit); err != nil {
				logger.Error("Failed to show ledger", err)
				os.Exit(1)
			}
		},
	}

	showCmd.Flags().Int("limit", 20, "Show only the newest N IDs (0 for all)")
	return showCmd
}

func newLedgerResetCmd() *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget every recorded message ID",
		Long:  `Clear the ledger. The next run will consider every message in the search window again.`,
		Run: func(cmd *cobra.Command, args []string) {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if err := runLedgerReset(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), confirm); err != nil {
				logger.Error("Failed to reset ledger", err)
				os.Exit(1)
			}
		},
	}

	resetCmd.Flags().Bool("confirm", false, "Skip confirmation prompt")
	return resetCmd
}

// openStore loads settings and opens the SQLite store they point at.
func openStore() (*config.Config, *store.Store, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.NewStore(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logger.Error("Failed to close store", err)
	}
}

func runLedgerShow(ctx context.Context, out io.Writer, limit int) error {
	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	processed, err := ledger.Load(ctx, st, cfg.Storage.ProcessedIDsKey, cfg.Storage.MaxStoredIDs)
	if err != nil {
		return err
	}
	printLedger(out, processed, limit)
	return nil
}

func printLedger(out io.Writer, processed *ledger.Ledger, limit int) {
	ids := processed.IDs()
	fmt.Fprintf(out, "📒 Processed messages: %d of %d\n", processed.Len(), processed.Capacity())
	if len(ids) == 0 {
		return
	}

	if limit > 0 && len(ids) > limit {
		fmt.Fprintf(out, "   (showing newest %d)\n", limit)
		ids = ids[len(ids)-limit:]
	}
	for _, id := range ids {
		fmt.Fprintf(out, "  - %s\n", id)
	}
}

func runLedgerReset(ctx context.Context, in io.Reader, out io.Writer, confirm bool) error {
	if !confirm {
		fmt.Fprint(out, "⚠️  This forgets every processed message; the next run may summarize them again. Continue? [y/N]: ")
		var response string
		fmt.Fscanln(in, &response)
		if response != "y" && response != "Y" && response != "yes" {
			fmt.Fprintln(out, "Ledger reset cancelled")
			return nil
		}
	}

	cfg, st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.Delete(ctx, cfg.Storage.ProcessedIDsKey); err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}

	fmt.Fprintln(out, "✅ Ledger cleared")
	return nil
}
