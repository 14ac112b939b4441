package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	treeMaxDepth int
	treeMinPct   float64
	treeJSON     bool
)

var treeCmd = &cobra.Command{
	Use:   "tree <file> <label>",
	Short: "Render the aggregated call-cost forest for a top-level label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, _, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		if treeJSON {
			return writeForestJSON(os.Stdout, roots)
		}
		renderForest(os.Stdout, roots, treeMaxDepth, treeMinPct)
		return nil
	},
}

func init() {
	treeCmd.Flags().IntVar(&treeMaxDepth, "max-depth", 0, "maximum tree depth to render (0 = unlimited)")
	treeCmd.Flags().Float64Var(&treeMinPct, "min-pct", 0, "hide nodes below this percentage of their root's cycles")
	treeCmd.Flags().BoolVar(&treeJSON, "json", false, "emit the forest as JSON")
}
