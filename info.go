package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// cmdInfo is the one-shot triage view: scan statistics, per-root summary,
// and the hot-label tables.
func cmdInfo(w io.Writer, roots []*span, stats scanStats, top int) {
	sectionHeader(w, "=== SCAN ===")
	fmt.Fprintf(w, "%-22s %9d\n", "lines", stats.lines)
	fmt.Fprintf(w, "%-22s %9d\n", "open markers", stats.opens)
	fmt.Fprintf(w, "%-22s %9d\n", "close markers", stats.closes)
	if stats.skippedSections > 0 {
		fmt.Fprintf(w, "%-22s %9d\n", "skipped sections", stats.skippedSections)
	}
	if stats.unmatchedCloses > 0 {
		fmt.Fprintf(w, "%-22s %9d\n", "unmatched closes", stats.unmatchedCloses)
	}
	if stats.discardedOpens > 0 {
		fmt.Fprintf(w, "%-22s %9d\n", "discarded open spans", stats.discardedOpens)
	}
	fmt.Fprintln(w)

	if len(roots) == 0 {
		fmt.Fprintln(w, "no sections aggregated")
		return
	}

	sectionHeader(w, "=== ROOTS ===")
	for _, root := range roots {
		fmt.Fprintf(w, "%-40s %14d cycles %9d calls %4d children\n",
			root.label, root.cycles, root.calls, len(root.order))
	}
	fmt.Fprintln(w)

	printHotTables(w, computeHot(roots), top, forestCycles(roots))

	fmt.Fprintf(w, "\nTotal cycles: %d\n", forestCycles(roots))
}

var infoTop int

var infoCmd = &cobra.Command{
	Use:   "info <file> <label>",
	Short: "One-shot triage: scan stats, roots, top hot labels",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, stats, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		cmdInfo(os.Stdout, roots, stats, infoTop)
		return nil
	},
}

func init() {
	infoCmd.Flags().IntVar(&infoTop, "top", 10, "limit hot-label rows")
}
