package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadikovi/searcher/internal/cache"
)

func TestFindEmptyPatternIsBadRequest(t *testing.T) {
	o := NewFindOrchestrator()
	dir := t.TempDir()
	_, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: ""})
	if err == nil || !IsBadRequest(err) {
		t.Fatalf("err = %v, want a bad-request ErrEmptyPattern", err)
	}
}

func TestFindMissingDirIsBadRequest(t *testing.T) {
	o := NewFindOrchestrator()
	_, err := o.Find(context.Background(), QueryParams{Dir: "/does/not/exist/at/all", Pattern: "x"})
	if err == nil || !IsBadRequest(err) {
		t.Fatalf("err = %v, want a bad-request directory error", err)
	}
}

func TestFindFileNotDirIsBadRequest(t *testing.T) {
	o := NewFindOrchestrator()
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	writeFile(t, path, "hi\n")
	_, err := o.Find(context.Background(), QueryParams{Dir: path, Pattern: "x"})
	if err == nil || !IsBadRequest(err) {
		t.Fatalf("err = %v, want a bad-request error for a non-directory path", err)
	}
}

func TestFindBadRegexIsBadRequest(t *testing.T) {
	o := NewFindOrchestrator()
	dir := t.TempDir()
	_, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "(unclosed", UseRegex: true})
	if err == nil || !IsBadRequest(err) {
		t.Fatalf("err = %v, want a bad-request regex error", err)
	}
}

func TestFindLiteralSmartCaseHit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "one\nhas NEEDLE inside\nthree\n")

	o := NewFindOrchestrator()
	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Content) != 1 {
		t.Fatalf("Content = %+v, want one hit", report.Content)
	}
}

func TestFindCaseSensitiveMiss(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "has needle inside\n")

	o := NewFindOrchestrator()
	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "Needle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Content) != 0 {
		t.Fatalf("Content = %+v, want no hits for a mixed-case non-matching pattern", report.Content)
	}
}

func TestFindUsesCacheOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "has needle inside\n")

	o := &FindOrchestrator{Cache: cache.NewDirCache(time.Hour, time.Hour)}
	_, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "needle", UseCache: true})
	if err != nil {
		t.Fatal(err)
	}

	// Remove the file; a cache-backed second call still reports UsedCache
	// since it replays the earlier listing rather than re-walking (the
	// replayed file can no longer be opened, so it yields no content hit).
	if err := os.Remove(filepath.Join(dir, "a.go")); err != nil {
		t.Fatal(err)
	}

	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "needle", UseCache: true})
	if err != nil {
		t.Fatal(err)
	}
	if !report.UsedCache {
		t.Error("second call should report UsedCache")
	}
}

func TestFindMatchesFilenameRegardlessOfExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "needle.png"), "not valid image bytes\n")

	o := NewFindOrchestrator()
	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || report.Files[0].Path != filepath.Join(dir, "needle.png") {
		t.Fatalf("Files = %+v, want a filename hit on needle.png despite its denylisted extension", report.Files)
	}
	if len(report.Content) != 0 {
		t.Errorf("Content = %+v, want no content scan of a denylisted extension", report.Content)
	}
}

func TestFindReportsFilesWalked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.go"), "x\n")
	writeFile(t, filepath.Join(dir, "b.go"), "x\n")
	writeFile(t, filepath.Join(dir, "c.go"), "x\n")

	o := NewFindOrchestrator()
	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if report.FilesWalked != 3 {
		t.Errorf("FilesWalked = %d, want 3", report.FilesWalked)
	}
}

func TestFindOverflowReportsAtLeast(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < FileCap+5; i++ {
		writeFile(t, filepath.Join(dir, "needle_"+string(rune('a'+i))+".go"), "x\n")
	}

	o := NewFindOrchestrator()
	report, err := o.Find(context.Background(), QueryParams{Dir: dir, Pattern: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if !report.FileMatches.IsAtLeast {
		t.Errorf("FileMatches = %+v, want IsAtLeast true", report.FileMatches)
	}
	if len(report.Files) != FileCap {
		t.Errorf("len(Files) = %d, want capped at %d", len(report.Files), FileCap)
	}
}
