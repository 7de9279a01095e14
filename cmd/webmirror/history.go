package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/webmirror/internal/config"
	"github.com/nao1215/webmirror/internal/database"
	"github.com/nao1215/webmirror/internal/stats"
)

// ErrNoHistory is returned when the history database does not exist yet.
var ErrNoHistory = errors.New("no mirror history found (run 'webmirror mirror' first)")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "List past mirror runs",
		Long: `History lists mirror runs recorded in the history database, newest
first. With a seed URL argument only runs for that seed are shown.

Examples:
  # List the most recent runs
  webmirror history

  # List runs for one seed
  webmirror history http://example.com/

  # Show every page fetched during run 3
  webmirror history --run 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().Int64("run", 0,
		"Show the pages fetched during the run with this ID")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false})
	if err != nil {
		return ErrNoHistory
	}
	defer db.Close() //nolint:errcheck // read-only access

	if runID > 0 {
		return printRunPages(cmd.OutOrStdout(), db, runID)
	}

	seed := ""
	if len(args) > 0 {
		seed = args[0]
	}
	return printRuns(cmd.OutOrStdout(), db, seed, limit)
}

// printRuns lists runs as a table.
func printRuns(out io.Writer, db *database.HistoryDB, seed string, limit int) error {
	runs, err := db.ListRuns(context.Background(), seed, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(out, "%4s  %-19s  %9s  %8s  %6s  %10s  %s\n",
		"ID", "STARTED", "ELAPSED", "REQUESTS", "FILES", "STORED", "SEED")
	for _, run := range runs {
		value, unit := stats.ConvertBytes(run.Bytes)
		fmt.Fprintf(out, "%4d  %-19s  %9s  %8d  %6d  %7.1f %-5s %s\n",
			run.ID,
			run.Started.Format("2006-01-02 15:04:05"),
			run.Finished.Sub(run.Started).Round(time.Second),
			run.Requests,
			run.Files,
			value, unit,
			run.Seed,
		)
	}
	return nil
}

// printRunPages lists the pages of a single run.
func printRunPages(out io.Writer, db *database.HistoryDB, runID int64) error {
	run, err := db.GetRun(context.Background(), runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %d not found", runID)
	}

	pages, err := db.ListPages(context.Background(), runID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %d: %s (%s, %d pages)\n\n",
		run.ID, run.Seed, run.Started.Format("2006-01-02 15:04:05"), len(pages))

	fmt.Fprintf(out, "%6s  %10s  %-24s  %s\n", "STATUS", "SIZE", "TYPE", "URL")
	for _, p := range pages {
		fmt.Fprintf(out, "%6d  %10d  %-24s  %s\n",
			p.StatusCode, p.Size, p.ContentType, p.URL)
	}
	return nil
}
