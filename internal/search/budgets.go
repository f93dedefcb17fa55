package search

import "go.uber.org/atomic"

// Budgets tracks the two shared, monotonically non-decreasing counters that
// bound a search: how many filename hits and how many content matches have
// been observed so far. Relaxed atomics suffice since the counters are
// monitoring, not synchronization, matching the style of the teacher's
// filesSkipped/filesSearched counters in
// cmd/searcher/internal/search/search_regex.go.
type Budgets struct {
	files   atomic.Uint64
	content atomic.Uint64
}

// NewBudgets returns a zeroed Budgets for a single search invocation.
func NewBudgets() *Budgets {
	return &Budgets{}
}

// IncFiles atomically increments the file counter and returns the value it
// held immediately before the increment, so callers can detect the exact
// candidate that first crossed FileCap.
func (b *Budgets) IncFiles() uint64 {
	return b.files.Inc() - 1
}

// IncContent atomically increments the content counter and returns its new
// value.
func (b *Budgets) IncContent() uint64 {
	return b.content.Inc()
}

func (b *Budgets) FilesCount() uint64 { return b.files.Load() }

func (b *Budgets) ContentCount() uint64 { return b.content.Load() }

// FilesExceeded reports whether more than FileCap filename hits have been
// observed.
func (b *Budgets) FilesExceeded() bool { return b.files.Load() > FileCap }

// ContentExceeded reports whether more than ContentCap content matches have
// been observed.
func (b *Budgets) ContentExceeded() bool { return b.content.Load() > ContentCap }

// Done reports the cooperative-quit condition: both budgets have been
// exceeded, so the walker should stop scheduling new work while letting
// in-flight files complete.
func (b *Budgets) Done() bool { return b.FilesExceeded() && b.ContentExceeded() }
