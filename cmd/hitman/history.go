package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"hitman/internal/history"
	"hitman/internal/output"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently sent requests",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().IntVarP(&historyLimit, "limit", "l", 0, "Number of entries to show (default from config)")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	store := openHistory()
	if store == nil {
		return errors.New("history is disabled or unavailable")
	}
	defer store.Close()

	limit := cfg.History.Limit
	if cmd.Flags().Changed("limit") {
		limit = historyLimit
	}
	entries, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return printHistory(cmd.OutOrStdout(), entries)
}

// pruneHistory trims the store to the configured number of entries.
func pruneHistory(store *history.Store) {
	if cfg.History.Keep <= 0 {
		return
	}
	n, err := store.Prune(context.Background(), cfg.History.Keep)
	if err != nil {
		logger.Debug("pruning history", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Debug("pruned history", zap.Int64("removed", n))
	}
}

func printHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No requests recorded yet.")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "TARGET", "FILE", "REQUEST", "STATUS", "ELAPSED")
	for _, e := range entries {
		status := strconv.Itoa(e.Status)
		if !e.OK() {
			status = "error: " + e.Error
		}
		t.Row(
			e.Time.Local().Format("2006-01-02 15:04:05"),
			e.Target,
			e.File,
			output.Truncate(e.Method+" "+e.URL),
			status,
			output.Duration(e.Elapsed),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
