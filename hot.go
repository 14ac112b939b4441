package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

type hotEntry struct {
	label       string
	selfCycles  uint64
	totalCycles uint64
	calls       uint64
}

// computeHot aggregates per-label cycle costs over the whole forest. Self
// cycles are the cycles a label spent outside any child span; total cycles
// count a label once per ancestor chain, so a label nested under itself does
// not double-count its enclosing invocation.
func computeHot(roots []*span) []hotEntry {
	if len(roots) == 0 {
		return nil
	}

	self := make(map[string]uint64)
	total := make(map[string]uint64)
	calls := make(map[string]uint64)

	onPath := make(map[string]int)
	var visit func(n *span)
	visit = func(n *span) {
		self[n.label] += n.selfCycles()
		calls[n.label] += n.calls
		if onPath[n.label] == 0 {
			total[n.label] += n.cycles
		}
		onPath[n.label]++
		for _, name := range n.order {
			visit(n.children[name])
		}
		onPath[n.label]--
	}
	for _, root := range roots {
		visit(root)
	}

	ranked := make([]hotEntry, 0, len(total))
	for label, tc := range total {
		ranked = append(ranked, hotEntry{label, self[label], tc, calls[label]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].selfCycles != ranked[j].selfCycles {
			return ranked[i].selfCycles > ranked[j].selfCycles
		}
		if ranked[i].totalCycles != ranked[j].totalCycles {
			return ranked[i].totalCycles > ranked[j].totalCycles
		}
		return ranked[i].label < ranked[j].label
	})
	return ranked
}

func printHotTables(w io.Writer, ranked []hotEntry, top int, grandTotal uint64) {
	selfRanked := ranked[:truncate(len(ranked), top)]

	sectionHeader(w, "=== RANK BY SELF CYCLES (top %d) ===", len(selfRanked))
	fmt.Fprintf(w, "%-40s %7s %7s %14s %9s\n", "LABEL", "SELF%", "TOTAL%", "CYCLES", "CALLS")
	for _, e := range selfRanked {
		fmt.Fprintf(w, "%-40s %6.1f%% %6.1f%% %14d %9d\n",
			e.label, pct(e.selfCycles, grandTotal), pct(e.totalCycles, grandTotal), e.selfCycles, e.calls)
	}

	totalRanked := make([]hotEntry, len(ranked))
	copy(totalRanked, ranked)
	sort.Slice(totalRanked, func(i, j int) bool {
		if totalRanked[i].totalCycles != totalRanked[j].totalCycles {
			return totalRanked[i].totalCycles > totalRanked[j].totalCycles
		}
		return totalRanked[i].label < totalRanked[j].label
	})
	totalRanked = totalRanked[:truncate(len(totalRanked), top)]

	fmt.Fprintln(w)
	sectionHeader(w, "=== RANK BY TOTAL CYCLES (top %d) ===", len(totalRanked))
	fmt.Fprintf(w, "%-40s %7s %7s %14s %9s\n", "LABEL", "SELF%", "TOTAL%", "CYCLES", "CALLS")
	for _, e := range totalRanked {
		fmt.Fprintf(w, "%-40s %6.1f%% %6.1f%% %14d %9d\n",
			e.label, pct(e.selfCycles, grandTotal), pct(e.totalCycles, grandTotal), e.totalCycles, e.calls)
	}
}

func cmdHot(w io.Writer, roots []*span, top int) {
	ranked := computeHot(roots)
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no spans aggregated")
		return
	}
	printHotTables(w, ranked, top, forestCycles(roots))
}

var hotTop int

var hotCmd = &cobra.Command{
	Use:   "hot <file> <label>",
	Short: "Rank labels by self and total cycles",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, _, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		cmdHot(os.Stdout, roots, hotTop)
		return nil
	},
}

func init() {
	hotCmd.Flags().IntVar(&hotTop, "top", 10, "limit output rows")
}
