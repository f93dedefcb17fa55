package search

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

// Sink receives the stream of events a LineScanner produces while scanning
// one file. A Matched/Context/ContextBreak call returning cont=false tells
// the scanner to stop reading the file early (used by Collector once the
// content budget has been exhausted, see SPEC_FULL.md §4.3). Finish is
// always called exactly once, even after an early stop, so the sink can
// flush whatever it already accumulated.
type Sink interface {
	Matched(lineNumber uint64, line []byte) (cont bool, err error)
	Context(kind ContentKind, lineNumber uint64, line []byte) (cont bool, err error)
	ContextBreak() (cont bool, err error)
	Finish() error
}

// LineScanner runs a Matcher over one file line by line; the line
// terminator is newline and multi-line matching is disabled. It emits
// Matched events for every line containing a match, up to ContextLines of
// Context before and after each match, and a ContextBreak between
// non-contiguous match regions.
//
// The algorithm is a streaming grep context window: a small ring buffer
// holds the most recent unsent lines as Before candidates, and an "after
// remaining" counter tracks how many trailing lines still belong to the
// current match region. This mirrors the sliding-window technique used by
// the grep searcher the spec's Rust original was built on, reimplemented
// here without a backing regex-searcher library.
type LineScanner struct {
	ContextLines int
}

// NewLineScanner returns a LineScanner using SPEC_FULL.md's fixed context
// width.
func NewLineScanner() *LineScanner {
	return &LineScanner{ContextLines: ContextLines}
}

func (s *LineScanner) Scan(matcher Matcher, path string, sink Sink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.scanReader(matcher, f, sink)
}

type pendingLine struct {
	number uint64
	bytes  []byte
}

func (s *LineScanner) scanReader(matcher Matcher, r io.Reader, sink Sink) error {
	k := s.ContextLines
	before := make([]pendingLine, 0, k)
	afterRemaining := 0
	groupOpen := false
	var lastEmitted uint64 // line number of the last Match/After line sent

	pushBefore := func(pl pendingLine) {
		if k == 0 {
			return
		}
		if len(before) == k {
			copy(before, before[1:])
			before = before[:k-1]
		}
		before = append(before, pl)
	}

	reader := bufio.NewReaderSize(r, 64*1024)
	var lineNumber uint64
	var scanErr error

lines:
	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) == 0 && readErr != nil {
			break
		}
		lineNumber++
		line := bytes.TrimSuffix(bytes.TrimSuffix(raw, []byte("\n")), []byte("\r"))

		_, ok, mErr := matcher.Find(line)
		if mErr != nil {
			scanErr = mErr
			break lines
		}

		switch {
		case ok:
			if afterRemaining == 0 {
				first := lineNumber
				if len(before) > 0 {
					first = before[0].number
				}
				if groupOpen && first > lastEmitted+1 {
					cont, err := sink.ContextBreak()
					if err != nil {
						scanErr = err
						break lines
					}
					if !cont {
						break lines
					}
				}
				for _, pl := range before {
					cont, err := sink.Context(Before, pl.number, pl.bytes)
					if err != nil {
						scanErr = err
						break lines
					}
					if !cont {
						break lines
					}
				}
				before = before[:0]
			}
			cont, err := sink.Matched(lineNumber, line)
			if err != nil {
				scanErr = err
				break lines
			}
			if !cont {
				break lines
			}
			afterRemaining = k
			groupOpen = true
			lastEmitted = lineNumber
			before = before[:0]
		case afterRemaining > 0:
			cont, err := sink.Context(After, lineNumber, line)
			if err != nil {
				scanErr = err
				break lines
			}
			if !cont {
				break lines
			}
			afterRemaining--
			lastEmitted = lineNumber
		default:
			pushBefore(pendingLine{number: lineNumber, bytes: append([]byte(nil), line...)})
		}

		if readErr != nil { // final line had no trailing newline
			break
		}
	}

	if finishErr := sink.Finish(); finishErr != nil && scanErr == nil {
		scanErr = finishErr
	}
	return scanErr
}
