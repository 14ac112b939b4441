package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// fixtureForest parses a small but representative trace:
//
//	prove
//	├── setup      (1 call,  100 cycles, 40 self)
//	│   └── load   (2 calls,  60 cycles)
//	└── commit     (2 calls, 300 cycles, 250 self)
//	    └── hash   (2 calls,  50 cycles)
func fixtureForest(t *testing.T) []*span {
	t.Helper()
	input := strings.Join([]string{
		"┌╴prove",
		"┌╴setup",
		"┌╴load",
		"└╴25 cycles",
		"┌╴load",
		"└╴35 cycles",
		"└╴100 cycles",
		"┌╴commit",
		"┌╴hash",
		"└╴20 cycles",
		"└╴150 cycles",
		"┌╴commit",
		"┌╴hash",
		"└╴30 cycles",
		"└╴150 cycles",
		"└╴500 cycles",
	}, "\n")
	roots, _ := mustScan(t, input, "prove")
	require.Len(t, roots, 1)
	return roots
}

// ---------------------------------------------------------------------------
// TestRenderForest
// ---------------------------------------------------------------------------

func TestRenderForest(t *testing.T) {
	roots := fixtureForest(t)

	var buf bytes.Buffer
	renderForest(&buf, roots, 0, 0)

	want := strings.Join([]string{
		"prove count: 1 sum: 500",
		"  setup count: 1 sum: 100",
		"    load count: 2 sum: 60",
		"  commit count: 2 sum: 300",
		"    hash count: 2 sum: 50",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("renderForest output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderForestDeterministic(t *testing.T) {
	input := strings.Join([]string{
		"┌╴A",
		"┌╴z", "└╴1 cycles",
		"┌╴m", "└╴2 cycles",
		"┌╴a", "└╴3 cycles",
		"└╴10 cycles",
	}, "\n")

	render := func() string {
		roots, _ := mustScan(t, input, "A")
		var buf bytes.Buffer
		renderForest(&buf, roots, 0, 0)
		return buf.String()
	}

	first := render()
	for i := 0; i < 10; i++ {
		require.Equal(t, first, render())
	}
	// Children render in first-encountered order, not lexical order.
	require.Equal(t, "A count: 1 sum: 10\n  z count: 1 sum: 1\n  m count: 1 sum: 2\n  a count: 1 sum: 3\n", first)
}

func TestRenderForestMaxDepth(t *testing.T) {
	roots := fixtureForest(t)

	var buf bytes.Buffer
	renderForest(&buf, roots, 2, 0)

	out := buf.String()
	require.Contains(t, out, "setup")
	require.NotContains(t, out, "load")
}

func TestRenderForestMinPct(t *testing.T) {
	roots := fixtureForest(t)

	// setup is 20% of the root, commit 60%.
	var buf bytes.Buffer
	renderForest(&buf, roots, 0, 25.0)

	out := buf.String()
	require.Contains(t, out, "commit")
	require.NotContains(t, out, "setup")
}

func TestWriteForestJSON(t *testing.T) {
	roots := fixtureForest(t)

	var buf bytes.Buffer
	require.NoError(t, writeForestJSON(&buf, roots))

	out := buf.String()
	require.Contains(t, out, `"label": "prove"`)
	require.Contains(t, out, `"cycles": 500`)
	// Insertion order survives the JSON view.
	require.Less(t, strings.Index(out, `"setup"`), strings.Index(out, `"commit"`))
}

// ---------------------------------------------------------------------------
// TestComputeHot
// ---------------------------------------------------------------------------

func TestComputeHot(t *testing.T) {
	roots := fixtureForest(t)
	ranked := computeHot(roots)
	require.NotEmpty(t, ranked)

	byLabel := make(map[string]hotEntry)
	for _, e := range ranked {
		byLabel[e.label] = e
	}

	require.Equal(t, uint64(250), byLabel["commit"].selfCycles)
	require.Equal(t, uint64(300), byLabel["commit"].totalCycles)
	require.Equal(t, uint64(2), byLabel["commit"].calls)
	require.Equal(t, uint64(100), byLabel["prove"].selfCycles)
	require.Equal(t, uint64(500), byLabel["prove"].totalCycles)
	require.Equal(t, "commit", ranked[0].label)
}

func TestComputeHotSelfNestedLabel(t *testing.T) {
	// A label nested under itself counts total cycles once.
	input := strings.Join([]string{
		"┌╴A",
		"┌╴A",
		"└╴40 cycles",
		"└╴100 cycles",
	}, "\n")
	roots, _ := mustScan(t, input, "A")

	ranked := computeHot(roots)
	require.Len(t, ranked, 1)
	require.Equal(t, uint64(100), ranked[0].totalCycles)
	require.Equal(t, uint64(100), ranked[0].selfCycles) // 60 outer self + 40 inner self
	require.Equal(t, uint64(2), ranked[0].calls)
}

func TestComputeHotEmpty(t *testing.T) {
	if got := computeHot(nil); got != nil {
		t.Errorf("expected nil for empty forest, got %v", got)
	}
}

// ---------------------------------------------------------------------------
// TestCmdCollapse
// ---------------------------------------------------------------------------

func TestCmdCollapse(t *testing.T) {
	roots := fixtureForest(t)

	var buf bytes.Buffer
	cmdCollapse(&buf, roots)

	want := strings.Join([]string{
		"prove 100",
		"prove;setup 40",
		"prove;setup;load 60",
		"prove;commit 250",
		"prove;commit;hash 50",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

// ---------------------------------------------------------------------------
// TestCmdDiff
// ---------------------------------------------------------------------------

func TestCmdDiff(t *testing.T) {
	beforeInput := strings.Join([]string{
		"┌╴A",
		"┌╴slow", "└╴50 cycles",
		"┌╴gone", "└╴30 cycles",
		"└╴100 cycles",
	}, "\n")
	afterInput := strings.Join([]string{
		"┌╴A",
		"┌╴slow", "└╴80 cycles",
		"┌╴fresh", "└╴10 cycles",
		"└╴100 cycles",
	}, "\n")

	before, _ := mustScan(t, beforeInput, "A")
	after, _ := mustScan(t, afterInput, "A")

	var buf bytes.Buffer
	cmdDiff(&buf, before, after, 0.5, 0)
	out := buf.String()

	require.Contains(t, out, "REGRESSION")
	require.Contains(t, out, "slow")
	require.Contains(t, out, "NEW")
	require.Contains(t, out, "fresh")
	require.Contains(t, out, "GONE")
	require.Contains(t, out, "gone")
	// The root's own self time improved (20% -> 10%).
	require.Contains(t, out, "IMPROVEMENT")
}

func TestCmdDiffNoChanges(t *testing.T) {
	input := "┌╴A\n└╴100 cycles\n"
	before, _ := mustScan(t, input, "A")
	after, _ := mustScan(t, input, "A")

	var buf bytes.Buffer
	cmdDiff(&buf, before, after, 0.5, 0)
	require.Equal(t, "no significant changes\n", buf.String())
}

// ---------------------------------------------------------------------------
// TestComputeCallers
// ---------------------------------------------------------------------------

func TestComputeCallers(t *testing.T) {
	input := strings.Join([]string{
		"┌╴A",
		"┌╴x",
		"┌╴hash", "└╴5 cycles",
		"└╴10 cycles",
		"┌╴y",
		"┌╴hash", "└╴7 cycles",
		"└╴20 cycles",
		"└╴50 cycles",
	}, "\n")
	roots, _ := mustScan(t, input, "A")

	ranked := computeCallers(roots, "hash")
	require.Len(t, ranked, 2)
	require.Equal(t, "A > y > hash", ranked[0].path)
	require.Equal(t, uint64(7), ranked[0].cycles)
	require.Equal(t, "A > x > hash", ranked[1].path)

	require.Empty(t, computeCallers(roots, "missing"))
}

func TestCmdCallersNoMatch(t *testing.T) {
	roots := fixtureForest(t)
	var buf bytes.Buffer
	cmdCallers(&buf, roots, "nope", 0)
	require.Equal(t, "no spans labeled \"nope\"\n", buf.String())
}

// ---------------------------------------------------------------------------
// TestBuildProfile
// ---------------------------------------------------------------------------

func TestBuildProfile(t *testing.T) {
	roots := fixtureForest(t)

	p := buildProfile(roots)
	require.NoError(t, p.CheckValid())

	// One sample per aggregate node: prove, setup, load, commit, hash.
	require.Len(t, p.Sample, 5)
	// One function/location per distinct label.
	require.Len(t, p.Function, 5)
	require.Len(t, p.Location, 5)

	// The root's sample stack is just the root itself.
	require.Len(t, p.Sample[0].Location, 1)
	require.Equal(t, "prove", p.Sample[0].Location[0].Line[0].Function.Name)
	require.Equal(t, []int64{1, 100}, p.Sample[0].Value)

	// Leaf-first location order for a nested node.
	deepest := p.Sample[2]
	require.Equal(t, "load", deepest.Location[0].Line[0].Function.Name)
	require.Equal(t, "prove", deepest.Location[len(deepest.Location)-1].Line[0].Function.Name)
}

func TestWriteProfileRoundTrip(t *testing.T) {
	roots := fixtureForest(t)
	out := t.TempDir() + "/trace.pb.gz"

	require.NoError(t, writeProfile(out, buildProfile(roots)))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

// ---------------------------------------------------------------------------
// TestCmdInfo
// ---------------------------------------------------------------------------

func TestCmdInfo(t *testing.T) {
	input := strings.Join([]string{
		"┌╴other", // skipped: no depth tracking, so its close below ends up unmatched
		"┌╴A",
		"┌╴B",
		"└╴10 cycles",
		"└╴50 cycles",
		"└╴99 cycles",
	}, "\n")
	roots, stats := mustScan(t, input, "A")

	var buf bytes.Buffer
	cmdInfo(&buf, roots, stats, 10)
	out := buf.String()

	require.Contains(t, out, "=== SCAN ===")
	require.Contains(t, out, "skipped sections")
	require.Contains(t, out, "unmatched closes")
	require.Contains(t, out, "=== ROOTS ===")
	require.Contains(t, out, "Total cycles: 50")
}

func TestCmdInfoEmptyForest(t *testing.T) {
	var buf bytes.Buffer
	cmdInfo(&buf, nil, scanStats{lines: 3}, 10)
	require.Contains(t, buf.String(), "no sections aggregated")
}
