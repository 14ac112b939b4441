package main

import "github.com/rs/zerolog"

// ---------------------------------------------------------------------------
// Aggregate span tree
// ---------------------------------------------------------------------------

// span holds the merged statistics of every invocation of one label at one
// position in the call tree. Labels are only unique among siblings; the same
// label may recur at any depth. children is keyed by child label, with order
// recording first-encountered insertion order since map iteration is not
// stable.
type span struct {
	label    string
	cycles   uint64
	calls    uint64
	children map[string]*span
	order    []string
}

func newSpan(label string) *span {
	return &span{label: label, children: make(map[string]*span)}
}

// merge folds other into s: counts and cycles sum, children merge by label
// recursively. other must not be reached again afterwards; its subtree is
// adopted wholesale wherever s has no child with that label.
func (s *span) merge(other *span) {
	s.calls += other.calls
	s.cycles += other.cycles
	for _, name := range other.order {
		child := other.children[name]
		if mine, ok := s.children[name]; ok {
			mine.merge(child)
		} else {
			s.children[name] = child
			s.order = append(s.order, name)
		}
	}
}

// addChild installs a completed child span, merging with an existing sibling
// of the same label if one was seen before.
func (s *span) addChild(child *span) {
	if existing, ok := s.children[child.label]; ok {
		existing.merge(child)
		return
	}
	s.children[child.label] = child
	s.order = append(s.order, child.label)
}

// selfCycles returns the cycles not attributed to any child span. Child sums
// exceeding the parent's total (possible in truncated traces where a parent
// was closed by a mismatched marker) clamp to zero.
func (s *span) selfCycles() uint64 {
	var childSum uint64
	for _, child := range s.children {
		childSum += child.cycles
	}
	if childSum > s.cycles {
		return 0
	}
	return s.cycles - childSum
}

// walkForest visits every node of the forest depth-first, children in
// first-encountered order. path holds the ancestor chain root-first and ends
// with the node being visited; callbacks must not retain it.
func walkForest(roots []*span, fn func(path []*span)) {
	path := make([]*span, 0, 16)
	var visit func(n *span)
	visit = func(n *span) {
		path = append(path, n)
		fn(path)
		for _, name := range n.order {
			visit(n.children[name])
		}
		path = path[:len(path)-1]
	}
	for _, root := range roots {
		visit(root)
	}
}

// forestCycles returns the cycle total over all roots.
func forestCycles(roots []*span) uint64 {
	var total uint64
	for _, root := range roots {
		total += root.cycles
	}
	return total
}

// ---------------------------------------------------------------------------
// Stack-based forest builder
// ---------------------------------------------------------------------------

// builder turns a stream of open/close events into a forest of aggregate
// trees. The stack holds spans that are open but not yet closed; closes match
// by position, not label, because the close marker does not repeat the label.
type builder struct {
	topLabel string
	stack    []*span
	roots    []*span
	stats    scanStats
	log      zerolog.Logger
}

func newBuilder(topLabel string, log zerolog.Logger) *builder {
	return &builder{topLabel: topLabel, log: log}
}

func (b *builder) open(label string) {
	// Sections rooted at other labels are skipped without any depth
	// tracking, so a nested open repeating the top-level label inside a
	// skipped section would be treated as a genuine top-level open.
	if len(b.stack) == 0 && label != b.topLabel {
		b.stats.skippedSections++
		b.log.Debug().Str("label", label).Msg("skipping section outside top-level label")
		return
	}
	b.stack = append(b.stack, newSpan(label))
}

func (b *builder) close(cycles uint64) {
	if len(b.stack) == 0 {
		b.stats.unmatchedCloses++
		b.log.Debug().Uint64("cycles", cycles).Msg("dropping close marker with no open span")
		return
	}
	top := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	top.calls++
	top.cycles += cycles

	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].addChild(top)
		return
	}
	b.roots = append(b.roots, top)
}

// finish discards spans still open at end of input and returns the completed
// forest.
func (b *builder) finish() []*span {
	if n := len(b.stack); n > 0 {
		b.stats.discardedOpens = n
		b.log.Debug().Int("spans", n).Msg("discarding spans left open at end of trace")
		b.stack = nil
	}
	return b.roots
}
