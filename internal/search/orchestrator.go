package search

import (
	"context"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/inconshreveable/log15"

	"github.com/sadikovi/searcher/internal/cache"
)

// resultBuffer sizes the ResultSink's channel buffers. It is a fixed
// constant rather than a tunable: it only bounds how many results can be
// in flight before a producer blocks, not the total result count.
const resultBuffer = 64

// FindOrchestrator ties Matcher, Budgets, ResultSink, WalkDispatcher and an
// optional Cache together into the single Find entry point SPEC_FULL.md
// §4.7 describes. One FindOrchestrator may be shared by concurrent
// invocations of Find; everything it holds is either immutable or built
// fresh per call.
type FindOrchestrator struct {
	Cache   cache.Cache
	Log     log15.Logger
	Workers int
}

// NewFindOrchestrator returns a FindOrchestrator with a NullCache; callers
// that want cache reuse across calls should set Cache explicitly.
func NewFindOrchestrator() *FindOrchestrator {
	return &FindOrchestrator{Cache: cache.NullCache{}}
}

// Find runs one search to completion and returns its report. Validation
// failures (bad directory, empty pattern, unparsable regex) are wrapped so
// search.IsBadRequest reports true; anything else is an internal failure.
func (o *FindOrchestrator) Find(ctx context.Context, params QueryParams) (*SearchReport, error) {
	start := time.Now()

	info, err := os.Stat(params.Dir)
	if err != nil {
		return nil, badRequestError{cause: errors.Mark(errors.Wrap(err, "searcher: cannot stat directory"), ErrNotADirectory)}
	}
	if !info.IsDir() {
		return nil, badRequestError{cause: ErrNotADirectory}
	}
	if params.Pattern == "" {
		return nil, badRequestError{cause: ErrEmptyPattern}
	}

	matcher, err := Build(params.Pattern, params.UseRegex)
	if err != nil {
		return nil, badRequestError{cause: err}
	}

	budgets := NewBudgets()
	sink := NewResultSink(resultBuffer)

	usedCache := false
	var filesWalked uint64
	c := o.Cache
	if c == nil {
		c = cache.NullCache{}
	}

	if params.UseCache && c.Contains(params.Dir) {
		usedCache, filesWalked = o.runFromCache(c, params.Dir, matcher, budgets, sink)
	}
	if !usedCache {
		var err error
		filesWalked, err = o.runLive(ctx, params, matcher, budgets, sink, c)
		if err != nil {
			sink.CloseAndDrain()
			return nil, err
		}
	}

	files, content := sink.CloseAndDrain()

	report := &SearchReport{
		ElapsedSeconds: time.Since(start).Seconds(),
		UsedCache:      usedCache,
		FilesWalked:    filesWalked,
		Files:          truncateFiles(files, FileCap),
		FileMatches:    matchedFor(budgets.FilesCount(), FileCap),
		Content:        truncateContent(content, ContentCap),
		ContentMatches: matchedFor(budgets.ContentCount(), ContentCap),
	}
	return report, nil
}

// runFromCache replays a previously discovered listing instead of walking
// the filesystem again, driving the identical per-file logic ProcessEntry
// implements for the live path. It returns false (falling back to a live
// walk) if the cache turns out to have nothing for dir after all, plus the
// number of cached entries replayed.
func (o *FindOrchestrator) runFromCache(c cache.Cache, dir string, matcher Matcher, budgets *Budgets, sink *ResultSink) (bool, uint64) {
	scanner := NewLineScanner()
	fileCh := sink.FileSender()
	contentCh := sink.ContentSender()

	var visited uint64
	replayed := c.Walk(dir, func(e cache.Entry) bool {
		visited++
		entry := NewWalkEntry(e.Path, e.Ext)
		if err := ProcessEntry(o.Log, scanner, matcher, entry, budgets, fileCh, contentCh); err != nil {
			if o.Log != nil {
				o.Log.Debug("searcher: error replaying cached entry", "path", e.Path, "err", err)
			}
		}
		return !budgets.Done()
	})
	return replayed, visited
}

// runLive walks the filesystem, then (when the walk ran to completion and
// the caller asked to use the cache) records the listing it discovered so a
// future call with UseCache can skip the walk entirely. It returns the
// number of files the walk discovered.
func (o *FindOrchestrator) runLive(ctx context.Context, params QueryParams, matcher Matcher, budgets *Budgets, sink *ResultSink, c cache.Cache) (uint64, error) {
	dispatcher := NewWalkDispatcher()
	dispatcher.Log = o.Log
	if o.Workers > 0 {
		dispatcher.Workers = o.Workers
	}

	err := dispatcher.Run(ctx, params.Dir, matcher, budgets, sink.FileSender(), sink.ContentSender())
	entries := dispatcher.Entries()
	if err != nil {
		return uint64(len(entries)), err
	}

	if params.UseCache && dispatcher.Completed() {
		cached := make([]cache.Entry, len(entries))
		for i, e := range entries {
			cached[i] = cache.Entry{Path: e.path, Ext: e.ext}
		}
		c.Populate(params.Dir, cached)
	}
	return uint64(len(entries)), err
}
