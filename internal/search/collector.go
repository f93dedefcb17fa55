package search

import (
	"github.com/sadikovi/searcher/internal/ext"
)

// Collector implements Sink, accumulating one file's LineScanner emissions
// into ordered ContentMatch groups and publishing a single ContentHit for
// the file once scanning finishes. It is not safe for concurrent use; each
// worker constructs its own Collector per file.
type Collector struct {
	path    string
	ext     ext.Tag
	matcher Matcher
	budgets *Budgets
	sink    chan<- ContentHit

	lines   []ContentLine
	matches []ContentMatch
}

// NewCollector builds a Collector for one file. matcher is used to recover
// the precise (start, end) of a match within a matched line; it should be a
// worker-local clone so concurrent collectors never share matcher state.
func NewCollector(path string, tag ext.Tag, matcher Matcher, budgets *Budgets, sink chan<- ContentHit) *Collector {
	return &Collector{
		path:    path,
		ext:     tag,
		matcher: matcher,
		budgets: budgets,
		sink:    sink,
	}
}

func (c *Collector) Matched(lineNumber uint64, line []byte) (bool, error) {
	c.budgets.IncContent()

	truncated, didTruncate := truncateLine(line)

	var start, end *int
	if pos, ok, err := c.matcher.Find(line); err == nil && ok {
		// Only keep the offsets if the match lies entirely within the
		// preserved prefix; otherwise the positions would point past what
		// we actually stored (see SPEC_FULL.md §4.3, Invariant 2).
		if !didTruncate || pos.End <= MaxPrefix {
			s, e := pos.Start, pos.End
			start, end = &s, &e
		}
	}

	c.lines = append(c.lines, ContentLine{
		Kind:       Match,
		LineNumber: lineNumber,
		Bytes:      truncated,
		Truncated:  didTruncate,
		MatchStart: start,
		MatchEnd:   end,
	})
	return true, nil
}

func (c *Collector) Context(kind ContentKind, lineNumber uint64, line []byte) (bool, error) {
	truncated, didTruncate := truncateLine(line)
	c.lines = append(c.lines, ContentLine{
		Kind:       kind,
		LineNumber: lineNumber,
		Bytes:      truncated,
		Truncated:  didTruncate,
	})
	return true, nil
}

func (c *Collector) ContextBreak() (bool, error) {
	if c.budgets.ContentCount() > ContentCap {
		return false, nil
	}
	c.flush()
	return true, nil
}

func (c *Collector) Finish() error {
	c.flush()
	if len(c.matches) > 0 {
		c.sink <- ContentHit{Path: c.path, Ext: c.ext, Matches: c.matches}
	}
	return nil
}

// flush moves the pending lines buffer into a completed ContentMatch.
// Lines arrive in file order already (Before, then Match, then After), so
// no sorting is required to satisfy the within-group ordering invariant.
func (c *Collector) flush() {
	if len(c.lines) == 0 {
		return
	}
	c.matches = append(c.matches, ContentMatch{Lines: c.lines})
	c.lines = nil
}

// truncateLine implements SPEC_FULL.md §3 Invariant 2: if the raw line
// exceeds MaxLine bytes, keep the first MaxPrefix bytes, an ellipsis, and
// the last MaxSuffix bytes; otherwise the line is preserved verbatim.
func truncateLine(line []byte) (string, bool) {
	if len(line) <= MaxLine {
		return string(line), false
	}
	buf := make([]byte, 0, MaxLine)
	buf = append(buf, line[:MaxPrefix]...)
	buf = append(buf, '.', '.', '.')
	buf = append(buf, line[len(line)-MaxSuffix:]...)
	return string(buf), true
}
