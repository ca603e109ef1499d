package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/querydesk-go/application"
	"github.com/lk2023060901/querydesk-go/internal/history"
	"github.com/lk2023060901/querydesk-go/internal/model"
	"github.com/lk2023060901/querydesk-go/internal/transport"
)

const queryPreviewLen = 60

func preview(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if runes := []rune(query); len(runes) > queryPreviewLen {
		return string(runes[:queryPreviewLen-3]) + "..."
	}
	return query
}

func printEntry(w io.Writer, e *model.HistoryEntry, now time.Time) {
	fmt.Fprintf(w, "  %-16s %-9s %10s %14s  %s\n",
		history.FormatStartedAt(e.StartedAt, now),
		e.Status,
		history.FormatDuration(e.Duration()),
		history.FormatRows(e.RowCount),
		preview(e.Query))
}

func addHistory(topLevel *cobra.Command, app *application.Application) {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the local query history.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var (
		offset, limit int
		grouped       bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List history entries, newest first.",
		Example: `
querydesk history list --limit 20
querydesk history list --grouped
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := app.History(cmd.Context())
			if err != nil {
				return err
			}
			state := cache.State()
			now := time.Now()
			out := cmd.OutOrStdout()
			if !grouped {
				for _, e := range state.Window(offset, limit) {
					printEntry(out, e, now)
				}
				return nil
			}
			for _, b := range state.Buckets(now) {
				fmt.Fprintln(out, b.Label)
				for _, e := range b.Entries {
					printEntry(out, e, now)
				}
			}
			return nil
		},
	}
	listCmd.Flags().IntVar(&offset, "offset", 0, "Number of entries to skip.")
	listCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries to print.")
	listCmd.Flags().BoolVar(&grouped, "grouped", false, "Group entries by day instead of paging.")

	removeCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Remove history entries.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := app.History(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range args {
				if err := cache.Dispatch(cmd.Context(), history.Removed{ID: id}); err != nil {
					return err
				}
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all history entries.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cache, err := app.History(cmd.Context())
			if err != nil {
				return err
			}
			return cache.Dispatch(cmd.Context(), history.Cleared{})
		},
	}

	var path string
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch history entries from the server and store them locally.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			res, err := client.Get(cmd.Context(), path)
			if err != nil {
				return err
			}
			entries, err := transport.AsArray[model.HistoryEntry](res)
			if err != nil {
				return err
			}
			cache, err := app.History(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				if err := cache.Dispatch(cmd.Context(), history.Appended{Entry: e}); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d entries, %d stored\n", len(entries), cache.State().Len())
			return nil
		},
	}
	syncCmd.Flags().StringVar(&path, "path", "/history", "Server path returning an array of history entries.")

	cmd.AddCommand(listCmd, removeCmd, clearCmd, syncCmd)
	topLevel.AddCommand(cmd)
}
