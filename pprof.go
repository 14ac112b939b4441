package main

import (
	"fmt"
	"os"

	"github.com/google/pprof/profile"
	"github.com/spf13/cobra"
)

// buildProfile converts the forest into a pprof profile with one sample per
// aggregate node. Sample values are [calls, self cycles], locations run
// leaf-first as pprof expects. Labels share one function and location table
// entry regardless of tree position.
func buildProfile(roots []*span) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "calls", Unit: "count"},
			{Type: "cycles", Unit: "count"},
		},
		DefaultSampleType: "cycles",
	}

	funcs := make(map[string]*profile.Function)
	locs := make(map[string]*profile.Location)
	locationFor := func(label string) *profile.Location {
		if loc, ok := locs[label]; ok {
			return loc
		}
		fn := &profile.Function{
			ID:         uint64(len(funcs) + 1),
			Name:       label,
			SystemName: label,
		}
		funcs[label] = fn
		p.Function = append(p.Function, fn)

		loc := &profile.Location{
			ID:   uint64(len(locs) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		locs[label] = loc
		p.Location = append(p.Location, loc)
		return loc
	}

	walkForest(roots, func(path []*span) {
		n := path[len(path)-1]
		sample := &profile.Sample{
			Value: []int64{int64(n.calls), int64(n.selfCycles())},
		}
		for i := len(path) - 1; i >= 0; i-- {
			sample.Location = append(sample.Location, locationFor(path[i].label))
		}
		p.Sample = append(p.Sample, sample)
	})
	return p
}

// writeProfile writes a profile as gzipped pprof protobuf, openable with
// `go tool pprof`.
func writeProfile(out string, p *profile.Profile) error {
	if err := p.CheckValid(); err != nil {
		return fmt.Errorf("building profile: %w", err)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := p.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing profile: %w", err)
	}
	return f.Close()
}

var pprofOut string

var pprofCmd = &cobra.Command{
	Use:   "pprof <file> <label>",
	Short: "Export the forest as a pprof profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		roots, _, err := loadTrace(args[0], args[1])
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			return fmt.Errorf("no sections labeled %q in %s", args[1], args[0])
		}
		p := buildProfile(roots)
		if err := writeProfile(pprofOut, p); err != nil {
			return err
		}
		fmt.Printf("wrote %d samples to %s\n", len(p.Sample), pprofOut)
		return nil
	},
}

func init() {
	pprofCmd.Flags().StringVarP(&pprofOut, "output", "o", "trace.pb.gz", "output path for the pprof profile")
}
