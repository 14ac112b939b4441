// ct-query: analyze cycle-tracker span traces.
//
// An instrumented program (a zkVM guest, an emulator, any cycle-counting
// runtime) logs nested span markers: "┌╴label" opens a span, "└╴N cycles"
// closes the innermost open one. ct-query ingests one trace file, aggregates
// every section rooted at a chosen top-level label into a merged call-cost
// forest, and answers questions about where the cycles went.
//
// Usage:
//
//	ct-query <command> <file> <label> [flags]
//
// Input: "-" reads stdin; a .gz suffix is transparently gunzipped.
//
// Commands: tree, hot, callers, diff, collapse, pprof, info
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger = zerolog.Nop()

var (
	flagVerbose bool
	flagColor   string
)

var rootCmd = &cobra.Command{
	Use:   "ct-query",
	Short: "Analyze cycle-tracker span traces",
	Long: `ct-query aggregates the nested span markers of a cycle-tracker trace
("┌╴label" opens a span, "└╴N cycles" closes it) into a merged call-cost
forest and renders, ranks, diffs, and exports it.

Every trace-consuming command takes two positional arguments: the trace file
path (or "-" for stdin, .gz accepted) and the top-level label whose sections
to aggregate.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if flagVerbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

		switch flagColor {
		case "on":
			color.NoColor = false
		case "off":
			color.NoColor = true
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging of dropped and skipped markers")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")

	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(hotCmd)
	rootCmd.AddCommand(callersCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(collapseCmd)
	rootCmd.AddCommand(pprofCmd)
	rootCmd.AddCommand(infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func truncate(n, top int) int {
	if top > 0 && top < n {
		return top
	}
	return n
}

func pct(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return 100.0 * float64(part) / float64(whole)
}
