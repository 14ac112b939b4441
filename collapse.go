package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// cmdCollapse emits the forest as collapsed-stack text: one
// "root;child;leaf <cycles>" line per tree path, with self cycles as the
// value so that summing any subtree reproduces its total. Nodes whose cycles
// are fully accounted for by children are skipped unless they are leaves.
func cmdCollapse(w io.Writer, roots []*span) {
	walkForest(roots, func(path []*span) {
		n := path[len(path)-1]
		self := n.selfCycles()
		if self == 0 && len(n.order) > 0 {
			return
		}
		labels := make([]string, len(path))
		for i, p := range path {
			labels[i] = p.label
		}
		fmt.Fprintf(w, "%s %d\n", strings.Join(labels, ";"), self)
	})
}

var collapseCmd = &cobra.Command{
	Use:   "collapse <file> <label>",
	Short: "Emit collapsed-stack text for flamegraph tooling",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, _, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		cmdCollapse(os.Stdout, roots)
		return nil
	},
}
