package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

type callerEntry struct {
	path   string
	cycles uint64
	calls  uint64
}

// computeCallers collects every distinct ancestor chain leading to a span
// labeled target, with the merged cycles and call counts of the target node
// at the end of that chain.
func computeCallers(roots []*span, target string) []callerEntry {
	byPath := make(map[string]*callerEntry)
	walkForest(roots, func(path []*span) {
		n := path[len(path)-1]
		if n.label != target {
			return
		}
		labels := make([]string, len(path))
		for i, p := range path {
			labels[i] = p.label
		}
		key := strings.Join(labels, " > ")
		e, ok := byPath[key]
		if !ok {
			e = &callerEntry{path: key}
			byPath[key] = e
		}
		e.cycles += n.cycles
		e.calls += n.calls
	})

	ranked := make([]callerEntry, 0, len(byPath))
	for _, e := range byPath {
		ranked = append(ranked, *e)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].cycles != ranked[j].cycles {
			return ranked[i].cycles > ranked[j].cycles
		}
		return ranked[i].path < ranked[j].path
	})
	return ranked
}

func cmdCallers(w io.Writer, roots []*span, target string, top int) {
	ranked := computeCallers(roots, target)
	if len(ranked) == 0 {
		fmt.Fprintf(w, "no spans labeled %q\n", target)
		return
	}
	ranked = ranked[:truncate(len(ranked), top)]

	grandTotal := forestCycles(roots)
	fmt.Fprintf(w, "%-60s %14s %9s %7s\n", "PATH", "CYCLES", "CALLS", "PCT")
	for _, e := range ranked {
		fmt.Fprintf(w, "%-60s %14d %9d %6.1f%%\n", e.path, e.cycles, e.calls, pct(e.cycles, grandTotal))
	}
}

var (
	callersTarget string
	callersTop    int
)

var callersCmd = &cobra.Command{
	Use:   "callers <file> <label>",
	Short: "Show the ancestor chains reaching a label (-m required)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if callersTarget == "" {
			return fmt.Errorf("-m/--match required")
		}
		roots, _, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		cmdCallers(os.Stdout, roots, callersTarget, callersTop)
		return nil
	},
}

func init() {
	callersCmd.Flags().StringVarP(&callersTarget, "match", "m", "", "exact label whose call paths to show")
	callersCmd.Flags().IntVar(&callersTop, "top", 0, "limit output rows (0 = unlimited)")
}
