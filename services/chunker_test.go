package services

import (
	"reflect"
	"strings"
	"testing"
)

func TestChunkerEmptyInput(t *testing.T) {
	cs := NewChunkerService(1500)

	for _, input := range []string{"", "   ", "\n\n\n\n", "\t\n\n  \n\n"} {
		if got := cs.Split(input); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", input, got)
		}
	}
}

func TestChunkerSinglePassage(t *testing.T) {
	cs := NewChunkerService(1500)

	text := "A single passage without any blank-line break.\nEven across newlines."
	got := cs.Split(text)
	if len(got) != 1 {
		t.Fatalf("Split returned %d chunks, want 1", len(got))
	}
	if got[0] != text {
		t.Errorf("chunk = %q, want %q", got[0], text)
	}
}

func TestChunkerGreedyAccumulation(t *testing.T) {
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	c := strings.Repeat("c", 40)
	text := a + "\n\n" + b + "\n\n" + c

	// All three fit in one chunk.
	got := NewChunkerService(200).Split(text)
	want := []string{a + "\n\n" + b + "\n\n" + c}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}

	// Budget fits two paragraphs but not three.
	got = NewChunkerService(85).Split(text)
	want = []string{a + "\n\n" + b, c}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}
}

func TestChunkerSplitsAtBoundaryWhenBudgetTooSmall(t *testing.T) {
	a := "first paragraph"
	b := "second paragraph"
	cs := NewChunkerService(len(a) + len(b) - 1)

	got := cs.Split(a + "\n\n" + b)
	want := []string{a, b}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}
}

func TestChunkerOversizedParagraphEmittedWhole(t *testing.T) {
	small := "intro"
	huge := strings.Repeat("x", 500)
	tail := "outro"
	cs := NewChunkerService(100)

	got := cs.Split(small + "\n\n" + huge + "\n\n" + tail)
	want := []string{small, huge, tail}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}
}

func TestChunkerRechunkingIsStable(t *testing.T) {
	cs := NewChunkerService(120)

	text := strings.Repeat("alpha beta gamma. ", 10) + "\n\n" +
		strings.Repeat("delta epsilon. ", 12) + "\n\n" +
		"short tail"

	first := cs.Split(text)
	for _, chunk := range first {
		again := cs.Split(chunk)
		if len(again) != 1 || again[0] != chunk {
			t.Errorf("re-splitting chunk %q changed it: %v", chunk, again)
		}
	}
}

func TestChunkerNormalizesParagraphWhitespace(t *testing.T) {
	cs := NewChunkerService(1500)

	got := cs.Split("  padded start  \n\n\n\n  padded end  ")
	want := []string{"padded start\n\npadded end"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split = %v, want %v", got, want)
	}
}
