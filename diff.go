package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

// selfPctByLabel returns each label's self cycles as a percentage of the
// forest's cycle total.
func selfPctByLabel(roots []*span) map[string]float64 {
	grandTotal := forestCycles(roots)
	pcts := make(map[string]float64)
	if grandTotal == 0 {
		return pcts
	}
	self := make(map[string]uint64)
	walkForest(roots, func(path []*span) {
		n := path[len(path)-1]
		self[n.label] += n.selfCycles()
	})
	for label, c := range self {
		pcts[label] = pct(c, grandTotal)
	}
	return pcts
}

func cmdDiff(w io.Writer, before, after []*span, minDelta float64, top int) {
	beforePct := selfPctByLabel(before)
	afterPct := selfPctByLabel(after)

	allLabels := make(map[string]bool)
	for l := range beforePct {
		allLabels[l] = true
	}
	for l := range afterPct {
		allLabels[l] = true
	}

	type diffEntry struct {
		label  string
		before float64
		after  float64
		delta  float64
	}

	var regressions, improvements, newLabels, goneLabels []diffEntry

	for l := range allLabels {
		b := beforePct[l]
		a := afterPct[l]
		delta := a - b

		_, inBefore := beforePct[l]
		_, inAfter := afterPct[l]

		switch {
		case inBefore && inAfter:
			if math.Abs(delta) < minDelta {
				continue
			}
			if delta > 0 {
				regressions = append(regressions, diffEntry{l, b, a, delta})
			} else {
				improvements = append(improvements, diffEntry{l, b, a, delta})
			}
		case !inBefore && inAfter:
			if a < minDelta {
				continue
			}
			newLabels = append(newLabels, diffEntry{l, 0, a, a})
		case inBefore && !inAfter:
			if b < minDelta {
				continue
			}
			goneLabels = append(goneLabels, diffEntry{l, b, 0, -b})
		}
	}

	byDelta := func(entries []diffEntry, desc bool) func(i, j int) bool {
		return func(i, j int) bool {
			if entries[i].delta != entries[j].delta {
				if desc {
					return entries[i].delta > entries[j].delta
				}
				return entries[i].delta < entries[j].delta
			}
			return entries[i].label < entries[j].label
		}
	}
	sort.Slice(regressions, byDelta(regressions, true))
	sort.Slice(improvements, byDelta(improvements, false))
	sort.Slice(newLabels, byDelta(newLabels, true))
	sort.Slice(goneLabels, byDelta(goneLabels, false))

	regressions = regressions[:truncate(len(regressions), top)]
	improvements = improvements[:truncate(len(improvements), top)]
	newLabels = newLabels[:truncate(len(newLabels), top)]
	goneLabels = goneLabels[:truncate(len(goneLabels), top)]

	anyOutput := false

	if len(regressions) > 0 {
		sectionHeader(w, "REGRESSION")
		for _, e := range regressions {
			fmt.Fprintf(w, "  %-40s %5.1f%% -> %5.1f%%  (+%.1f%%)\n", e.label, e.before, e.after, e.delta)
		}
		anyOutput = true
	}
	if len(improvements) > 0 {
		sectionHeader(w, "IMPROVEMENT")
		for _, e := range improvements {
			fmt.Fprintf(w, "  %-40s %5.1f%% -> %5.1f%%  (%.1f%%)\n", e.label, e.before, e.after, e.delta)
		}
		anyOutput = true
	}
	if len(newLabels) > 0 {
		sectionHeader(w, "NEW")
		for _, e := range newLabels {
			fmt.Fprintf(w, "  %-40s %.1f%%\n", e.label, e.after)
		}
		anyOutput = true
	}
	if len(goneLabels) > 0 {
		sectionHeader(w, "GONE")
		for _, e := range goneLabels {
			fmt.Fprintf(w, "  %-40s %.1f%%\n", e.label, e.before)
		}
		anyOutput = true
	}

	if !anyOutput {
		fmt.Fprintln(w, "no significant changes")
	}
}

var (
	diffMinDelta float64
	diffTop      int
)

var diffCmd = &cobra.Command{
	Use:   "diff <before> <after> <label>",
	Short: "Compare two traces by self-cycle percentage per label",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[2]
		before, _, err := loadTrace(args[0], label)
		if err != nil {
			return err
		}
		after, _, err := loadTrace(args[1], label)
		if err != nil {
			return err
		}
		cmdDiff(os.Stdout, before, after, diffMinDelta, diffTop)
		return nil
	},
}

func init() {
	diffCmd.Flags().Float64Var(&diffMinDelta, "min-delta", 0.5, "hide entries below this percentage change")
	diffCmd.Flags().IntVar(&diffTop, "top", 0, "limit rows per bucket (0 = unlimited)")
}
