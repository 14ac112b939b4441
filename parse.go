package main

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Marker classification
// ---------------------------------------------------------------------------

// Cycle-tracker glyphs as emitted by the instrumented runtime. The open
// marker carries the span label, the close marker the cycle count of the
// innermost open span:
//
//	┌╴compute_root
//	│ ┌╴hash_leaves
//	│ └╴12,345 cycles
//	└╴20,001 cycles
//
// Lines may carry arbitrary prefixes (log timestamps, `│ ` nesting padding),
// so the glyph is searched anywhere in the line.
const (
	openMarker  = "┌╴"
	closeMarker = "└╴"
	cycleUnit   = "cycles"
)

var errMalformedCycleCount = errors.New("malformed cycle count")

type markerKind int

const (
	markerNone markerKind = iota
	markerOpen
	markerClose
)

// classifyLine decides whether a trace line opens a span, closes one, or is
// irrelevant. When both glyphs appear on one (malformed) line, open wins.
func classifyLine(line string) (kind markerKind, label string, cycles uint64, err error) {
	if idx := strings.Index(line, openMarker); idx >= 0 {
		return markerOpen, strings.TrimSpace(line[idx+len(openMarker):]), 0, nil
	}
	if idx := strings.Index(line, closeMarker); idx >= 0 {
		cycles, err = parseCycles(line[idx+len(closeMarker):])
		return markerClose, "", cycles, err
	}
	return markerNone, "", 0, nil
}

// parseCycles parses the close-marker payload: "12,345 cycles" → 12345.
// Thousands separators and the trailing unit are stripped before parsing.
func parseCycles(payload string) (uint64, error) {
	s := strings.TrimSpace(payload)
	s = strings.TrimSuffix(s, cycleUnit)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errMalformedCycleCount, strings.TrimSpace(payload))
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Trace scanning
// ---------------------------------------------------------------------------

type scanStats struct {
	lines           int
	opens           int
	closes          int
	skippedSections int
	unmatchedCloses int
	discardedOpens  int
}

// scanTrace drives the classifier and the span stack across the whole input
// and returns the completed forest. A malformed cycle count aborts the scan;
// every other irregularity (unmatched closes, spans still open at EOF,
// sections outside the top-level label) degrades silently and is only
// reported through stats and debug logs.
func scanTrace(r io.Reader, topLabel string, log zerolog.Logger) ([]*span, scanStats, error) {
	b := newBuilder(topLabel, log)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		b.stats.lines++
		kind, label, cycles, err := classifyLine(sc.Text())
		if err != nil {
			return nil, b.stats, fmt.Errorf("line %d: %w", b.stats.lines, err)
		}
		switch kind {
		case markerOpen:
			b.stats.opens++
			b.open(label)
		case markerClose:
			b.stats.closes++
			b.close(cycles)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, b.stats, fmt.Errorf("reading trace: %w", err)
	}
	return b.finish(), b.stats, nil
}

// openTrace opens a trace for reading. "-" reads stdin; a ".gz" suffix is
// transparently gunzipped.
func openTrace(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &gzipReadCloser{gr: gr, f: f}, nil
	}
	return f, nil
}

type gzipReadCloser struct {
	gr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gr.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gr.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gzErr
}

func loadTrace(path, topLabel string) ([]*span, scanStats, error) {
	r, err := openTrace(path)
	if err != nil {
		return nil, scanStats{}, err
	}
	defer r.Close()
	return scanTrace(r, topLabel, logger)
}
