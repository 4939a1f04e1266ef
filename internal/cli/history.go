package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pkglink-dev/pkglink/internal/config"
	"github.com/pkglink-dev/pkglink/internal/journal"
	"github.com/pkglink-dev/pkglink/internal/userdata"
)

var (
	historyLimit int
	historyRun   string
	historyJSON  bool
	historyPrune time.Duration
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only show entries from this run id")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output in JSON format")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "Delete entries older than this age (e.g. 720h) instead of listing")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:               "history [name]",
	Short:             "Show recent link actions",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completePackageNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.Current().Journal {
			return errors.New("the journal is disabled; enable it with 'config set journal true'")
		}
		j, err := journal.Open(cmd.Context(), userdata.JournalPath())
		if err != nil {
			return err
		}
		defer j.Close()

		out := cmd.OutOrStdout()
		if historyPrune > 0 {
			n, err := j.Prune(cmd.Context(), time.Now().Add(-historyPrune))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pruned %d entries.\n", n)
			return nil
		}

		f := journal.Filter{RunID: historyRun, Limit: historyLimit}
		if len(args) == 1 {
			f.Package = args[0]
		}
		entries, err := j.Recent(cmd.Context(), f)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No recorded actions.")
			return nil
		}

		t := newTable(out)
		t.AppendHeader(table.Row{"TIME", "OP", "PACKAGE", "PROJECT", "OUTCOME", "MESSAGE"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.RecordedAt.Local().Format(time.DateTime),
				e.Op, e.Package, orDash(e.Project), e.Outcome, e.Message,
			})
		}
		t.Render()
		return nil
	},
}
