package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	spanLabelPaint = color.New(color.FgCyan).SprintFunc()
	headerPaint    = color.New(color.Bold).SprintfFunc()
)

func sectionHeader(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, headerPaint(format, args...))
}

// renderForest prints each root and its subtree as indented lines, roots in
// append order, children in first-encountered order. maxDepth 0 means
// unlimited; minPct hides nodes below that percentage of their root's
// cycles.
func renderForest(w io.Writer, roots []*span, maxDepth int, minPct float64) {
	for _, root := range roots {
		renderSpan(w, root, root.cycles, 0, maxDepth, minPct)
	}
}

func renderSpan(w io.Writer, n *span, rootCycles uint64, depth, maxDepth int, minPct float64) {
	if minPct > 0 && rootCycles > 0 && pct(n.cycles, rootCycles) < minPct {
		return
	}
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s count: %d sum: %d\n", pad, spanLabelPaint(n.label), n.calls, n.cycles)

	if maxDepth > 0 && depth+1 >= maxDepth {
		return
	}
	for _, name := range n.order {
		renderSpan(w, n.children[name], rootCycles, depth+1, maxDepth, minPct)
	}
}

// ---------------------------------------------------------------------------
// JSON view
// ---------------------------------------------------------------------------

type spanJSON struct {
	Label    string     `json:"label"`
	Calls    uint64     `json:"calls"`
	Cycles   uint64     `json:"cycles"`
	Children []spanJSON `json:"children,omitempty"`
}

func spanToJSON(n *span) spanJSON {
	out := spanJSON{Label: n.label, Calls: n.calls, Cycles: n.cycles}
	for _, name := range n.order {
		out.Children = append(out.Children, spanToJSON(n.children[name]))
	}
	return out
}

// writeForestJSON emits the forest as indented JSON, one array of root
// objects. This is a debug view, not a format contract.
func writeForestJSON(w io.Writer, roots []*span) error {
	out := make([]spanJSON, 0, len(roots))
	for _, root := range roots {
		out = append(out, spanToJSON(root))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
