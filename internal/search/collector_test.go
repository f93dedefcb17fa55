package search

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sadikovi/searcher/internal/ext"
)

func TestCollectorEmitsOneHitWithGroups(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	budgets := NewBudgets()
	ch := make(chan ContentHit, 1)
	collector := NewCollector("f.go", ext.Go, matcher, budgets, ch)

	if _, err := collector.Context(Before, 1, []byte("plain one")); err != nil {
		t.Fatal(err)
	}
	if _, err := collector.Matched(2, []byte("needle here")); err != nil {
		t.Fatal(err)
	}
	if _, err := collector.Context(After, 3, []byte("plain three")); err != nil {
		t.Fatal(err)
	}
	if _, err := collector.ContextBreak(); err != nil {
		t.Fatal(err)
	}
	if _, err := collector.Matched(10, []byte("needle again")); err != nil {
		t.Fatal(err)
	}
	if err := collector.Finish(); err != nil {
		t.Fatal(err)
	}

	select {
	case hit := <-ch:
		if hit.Path != "f.go" || hit.Ext != ext.Go {
			t.Fatalf("hit = %+v", hit)
		}
		if len(hit.Matches) != 2 {
			t.Fatalf("len(Matches) = %d, want 2", len(hit.Matches))
		}
		if len(hit.Matches[0].Lines) != 3 {
			t.Fatalf("first group has %d lines, want 3", len(hit.Matches[0].Lines))
		}
		if len(hit.Matches[1].Lines) != 1 {
			t.Fatalf("second group has %d lines, want 1", len(hit.Matches[1].Lines))
		}
	default:
		t.Fatal("expected a ContentHit on the channel")
	}
}

func TestCollectorFinishIsNoopWithoutMatches(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	budgets := NewBudgets()
	ch := make(chan ContentHit, 1)
	collector := NewCollector("f.go", ext.Go, matcher, budgets, ch)
	if err := collector.Finish(); err != nil {
		t.Fatal(err)
	}
	select {
	case hit := <-ch:
		t.Fatalf("expected no ContentHit, got %+v", hit)
	default:
	}
}

func TestTruncateLine(t *testing.T) {
	short := bytes.Repeat([]byte("a"), MaxLine)
	if _, truncated := truncateLine(short); truncated {
		t.Error("a line exactly MaxLine bytes should not be truncated")
	}

	long := bytes.Repeat([]byte("b"), MaxLine+1)
	out, truncated := truncateLine(long)
	if !truncated {
		t.Fatal("a line over MaxLine bytes should be truncated")
	}
	if len(out) != MaxLine {
		t.Errorf("len(out) = %d, want %d", len(out), MaxLine)
	}
	if !strings.Contains(out, "...") {
		t.Error("truncated line should contain an ellipsis")
	}
}

func TestCollectorClearsMatchPositionWhenTruncatedPastPrefix(t *testing.T) {
	matcher, err := Build("needle", false)
	if err != nil {
		t.Fatal(err)
	}
	budgets := NewBudgets()
	ch := make(chan ContentHit, 1)
	collector := NewCollector("f.go", ext.Go, matcher, budgets, ch)

	line := append(bytes.Repeat([]byte("x"), MaxPrefix+30), []byte("needle")...)
	if _, err := collector.Matched(1, line); err != nil {
		t.Fatal(err)
	}
	if err := collector.Finish(); err != nil {
		t.Fatal(err)
	}

	hit := <-ch
	l := hit.Matches[0].Lines[0]
	if !l.Truncated {
		t.Fatal("expected the line to be reported truncated")
	}
	if l.MatchStart != nil || l.MatchEnd != nil {
		t.Error("match position should be cleared once the match falls past the preserved prefix")
	}
}
