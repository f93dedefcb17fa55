package search

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/inconshreveable/log15"
	"github.com/panjf2000/ants/v2"
	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/sadikovi/searcher/internal/ext"
)

type walkEntry struct {
	path string
	ext  ext.Tag
}

// NewWalkEntry constructs the value ProcessEntry expects for one file. It
// exists so the cache-backed replay path (FindOrchestrator.runFromCache,
// replaying an internal/cache listing) can drive the same per-file logic
// the live walker uses without internal/search exporting its entry
// representation wholesale.
func NewWalkEntry(path string, tag ext.Tag) walkEntry {
	return walkEntry{path: path, ext: tag}
}

// WalkDispatcher traverses a directory tree in parallel, respecting
// .gitignore-style filters, never following symlinks and never crossing
// filesystem boundaries. For each regular file it tests the filename
// against the Matcher and, for files with a supported extension, runs a
// LineScanner over the contents via a Collector.
//
// Discovery (phase 1, directory walking, gitignore/symlink/same-filesystem
// filtering) runs on its own goroutine feeding a channel; Run drains that
// channel and submits each file to a bounded pool of workers (phase 2),
// matching the "synchronous walker with a worker pool consuming a bounded
// path queue" fallback SPEC_FULL.md §9 allows when a respectful parallel
// walker library is unavailable. See Run for how the pool relates to the
// work-queue pattern in cmd/searcher/internal/search/search_regex.go.
type WalkDispatcher struct {
	Workers int
	Log     log15.Logger

	mu        sync.Mutex
	collected []walkEntry
	quitHit   bool
}

// Entries returns every file the discovery phase handed to a worker. Valid
// only after Run has returned. Combined with Completed, this lets the
// orchestrator decide whether the walk saw the whole tree and is therefore
// safe to cache (see internal/cache and SPEC_FULL.md §4.9).
func (d *WalkDispatcher) Entries() []walkEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]walkEntry(nil), d.collected...)
}

// Completed reports whether the walk ran to exhaustion rather than being
// cut short by the cooperative-quit protocol.
func (d *WalkDispatcher) Completed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.quitHit
}

// NewWalkDispatcher returns a dispatcher sized to the host's CPU
// parallelism, matching SPEC_FULL.md §5's scheduling model.
func NewWalkDispatcher() *WalkDispatcher {
	return &WalkDispatcher{Workers: runtime.GOMAXPROCS(0)}
}

// Run walks root, sending FileHit and ContentHit results to fileCh and
// contentCh respectively. It returns once the discovery channel has been
// drained, or the cooperative-quit condition has been reached and every
// already-submitted file has finished processing.
//
// Per-file work is submitted to a bounded github.com/panjf2000/ants/v2 pool
// sized to d.Workers rather than run on d.Workers persistent goroutines: the
// pool blocks Submit until a worker is free, giving the same backpressure
// the errgroup-of-loops pattern in
// cmd/searcher/internal/search/search_regex.go achieves with a
// mutex-protected queue.
func (d *WalkDispatcher) Run(ctx context.Context, root string, matcher Matcher, budgets *Budgets, fileCh chan<- FileHit, contentCh chan<- ContentHit) error {
	quit := make(chan struct{})
	var once sync.Once
	closeQuit := func() {
		once.Do(func() {
			d.mu.Lock()
			d.quitHit = true
			d.mu.Unlock()
			close(quit)
		})
	}

	workers := d.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return errors.Wrap(err, "searcher: failed to create worker pool")
	}
	defer pool.Release()

	var discoverGroup errgroup.Group
	entries := discoverFiles(&discoverGroup, root, quit)

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error
	recordErr := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		closeQuit()
	}

dispatch:
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				break dispatch
			}
			d.mu.Lock()
			d.collected = append(d.collected, entry)
			d.mu.Unlock()

			scanner := NewLineScanner()
			workerMatcher := matcher.Clone()
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := ProcessEntry(d.Log, scanner, workerMatcher, entry, budgets, fileCh, contentCh); err != nil {
					recordErr(err)
					return
				}
				if budgets.Done() {
					closeQuit()
				}
			})
			if submitErr != nil {
				wg.Done()
				recordErr(submitErr)
				break dispatch
			}
		case <-ctx.Done():
			closeQuit()
			break dispatch
		case <-quit:
			break dispatch
		}
	}

	wg.Wait()
	walkErr := discoverGroup.Wait()

	errMu.Lock()
	defer errMu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if walkErr != nil {
		return walkErr
	}
	return ctx.Err()
}

// ProcessEntry implements the per-file steps of SPEC_FULL.md §4.4: the
// filename check runs unconditionally on every entry discoverFiles hands it,
// then (for supported, non-denylisted extensions, while under the content
// budget) a content scan. It is shared by the live WalkDispatcher and the
// cache-backed replay path (internal/cache), which is required to honor
// the identical per-file callback contract.
//
// I/O and encoding failures are swallowed here: the affected file yields no
// hits and the walk continues, per §7's failure-isolation policy. Only a
// scanner invariant violation (LineNumbersDisabled) is treated as fatal.
func ProcessEntry(log log15.Logger, scanner *LineScanner, matcher Matcher, entry walkEntry, budgets *Budgets, fileCh chan<- FileHit, contentCh chan<- ContentHit) error {
	name := filepath.Base(entry.path)
	if matcher.IsMatch(name) {
		prev := budgets.IncFiles()
		if prev < FileCap {
			fileCh <- FileHit{Path: entry.path, Ext: entry.ext}
		}
	}

	if ext.IsSupported(entry.ext) && ext.IsSupportedPath(entry.path) && budgets.ContentCount() < ContentCap {
		collector := NewCollector(entry.path, entry.ext, matcher.Clone(), budgets, contentCh)
		if err := scanner.Scan(matcher, entry.path, collector); err != nil {
			if errors.Is(err, ErrLineNumbersDisabled) {
				return err
			}
			if log != nil {
				log.Debug("searcher: skipping file after scan error", "path", entry.path, "err", err)
			}
		}
	}
	return nil
}

// discoverFiles walks root on a goroutine managed by g, filtering out
// directories and files .gitignore excludes, symlinks, and paths that cross
// onto another filesystem, and publishing every remaining regular file on
// the returned channel. It stops early (and closes the channel) once quit
// is closed. A top-level walk failure (root does not exist, root itself is
// unreadable) is returned from g.Wait(); per-entry errors are swallowed so
// one bad entry doesn't abort the whole walk.
func discoverFiles(g *errgroup.Group, root string, quit <-chan struct{}) <-chan walkEntry {
	out := make(chan walkEntry, 256)
	g.Go(func() error {
		defer close(out)

		rootDev, haveRootDev := deviceOf(root)

		type ignoreFrame struct {
			dir string
			ig  *gitignore.GitIgnore
		}
		var stack []ignoreFrame

		popTo := func(dir string) {
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.dir == dir || strings.HasPrefix(dir, top.dir+string(filepath.Separator)) {
					return
				}
				stack = stack[:len(stack)-1]
			}
		}

		ignored := func(path string) bool {
			for i := len(stack) - 1; i >= 0; i-- {
				rel, err := filepath.Rel(stack[i].dir, path)
				if err != nil {
					continue
				}
				if stack[i].ig.MatchesPath(rel) {
					return true
				}
			}
			return false
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-quit:
				return filepath.SkipAll
			default:
			}
			if err != nil {
				if path == root {
					return err
				}
				return nil
			}

			if d.IsDir() {
				popTo(filepath.Dir(path))
				if path != root {
					if d.Type()&fs.ModeSymlink != 0 {
						return filepath.SkipDir
					}
					if haveRootDev {
						if dev, ok := deviceOf(path); ok && dev != rootDev {
							return filepath.SkipDir
						}
					}
					if ignored(path) {
						return filepath.SkipDir
					}
				}
				if ig, err := gitignore.CompileIgnoreFile(filepath.Join(path, ".gitignore")); err == nil {
					stack = append(stack, ignoreFrame{dir: path, ig: ig})
				}
				return nil
			}

			popTo(filepath.Dir(path))
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !utf8.ValidString(path) {
				return nil
			}
			if ignored(path) {
				return nil
			}

			tag := ext.Parse(path)
			select {
			case out <- walkEntry{path: path, ext: tag}:
			case <-quit:
				return filepath.SkipAll
			}
			return nil
		})
		if errors.Is(walkErr, filepath.SkipAll) {
			return nil
		}
		return walkErr
	})
	return out
}

// deviceOf returns the filesystem device number for path, used to avoid
// crossing mount points while walking. ok is false if the platform's stat
// result doesn't expose a device number.
func deviceOf(path string) (dev uint64, ok bool) {
	var st syscall.Stat_t
	if err := syscall.Stat(path, &st); err != nil {
		return 0, false
	}
	return uint64(st.Dev), true
}
