package search

import (
	"fmt"
	"strings"
	"testing"
)

type event struct {
	kind string // "match", "before", "after", "break"
	line uint64
	text string
}

type fakeSink struct {
	events  []event
	stopAt  int // stop returning cont=true once len(events) reaches this; 0 means never
	finishN int
}

func (f *fakeSink) record(e event) bool {
	f.events = append(f.events, e)
	return f.stopAt == 0 || len(f.events) < f.stopAt
}

func (f *fakeSink) Matched(n uint64, line []byte) (bool, error) {
	return f.record(event{"match", n, string(line)}), nil
}

func (f *fakeSink) Context(kind ContentKind, n uint64, line []byte) (bool, error) {
	name := "before"
	if kind == After {
		name = "after"
	}
	return f.record(event{name, n, string(line)}), nil
}

func (f *fakeSink) ContextBreak() (bool, error) {
	return f.record(event{"break", 0, ""}), nil
}

func (f *fakeSink) Finish() error {
	f.finishN++
	return nil
}

func buildLines(n int, matchAt map[int]bool) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		if matchAt[i] {
			fmt.Fprintf(&b, "needle line %d\n", i)
		} else {
			fmt.Fprintf(&b, "plain line %d\n", i)
		}
	}
	return b.String()
}

func TestScanReaderContextAndBreak(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	input := buildLines(20, map[int]bool{3: true, 15: true})

	sink := &fakeSink{}
	scanner := NewLineScanner()
	if err := scanner.scanReader(matcher, strings.NewReader(input), sink); err != nil {
		t.Fatalf("scanReader: %v", err)
	}

	want := []event{
		{"before", 1, "plain line 1"},
		{"before", 2, "plain line 2"},
		{"match", 3, "needle line 3"},
		{"after", 4, "plain line 4"},
		{"after", 5, "plain line 5"},
		{"break", 0, ""},
		{"before", 13, "plain line 13"},
		{"before", 14, "plain line 14"},
		{"match", 15, "needle line 15"},
		{"after", 16, "plain line 16"},
		{"after", 17, "plain line 17"},
	}
	if len(sink.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(sink.events), len(want), sink.events)
	}
	for i, w := range want {
		if sink.events[i] != w {
			t.Errorf("event[%d] = %+v, want %+v", i, sink.events[i], w)
		}
	}
	if sink.finishN != 1 {
		t.Errorf("Finish called %d times, want exactly 1", sink.finishN)
	}
}

func TestScanReaderFinishCalledOnEarlyStop(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	input := buildLines(10, map[int]bool{2: true, 8: true})

	sink := &fakeSink{stopAt: 1} // stop right after the first event
	scanner := NewLineScanner()
	if err := scanner.scanReader(matcher, strings.NewReader(input), sink); err != nil {
		t.Fatalf("scanReader: %v", err)
	}
	if sink.finishN != 1 {
		t.Errorf("Finish called %d times, want exactly 1 even on early stop", sink.finishN)
	}
}

func TestScanReaderNoMatches(t *testing.T) {
	matcher, err := Build("absent", false)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	scanner := NewLineScanner()
	if err := scanner.scanReader(matcher, strings.NewReader("one\ntwo\nthree\n"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 0 {
		t.Errorf("expected no events, got %+v", sink.events)
	}
	if sink.finishN != 1 {
		t.Error("Finish should still be called once with no matches")
	}
}

func TestScanReaderNoTrailingNewline(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	sink := &fakeSink{}
	scanner := NewLineScanner()
	if err := scanner.scanReader(matcher, strings.NewReader("before\nneedle here"), sink); err != nil {
		t.Fatal(err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("events = %+v, want 2", sink.events)
	}
	if sink.events[1].text != "needle here" {
		t.Errorf("last line = %q, want %q", sink.events[1].text, "needle here")
	}
}
