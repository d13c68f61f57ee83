package workflow

import (
	"strings"
	"testing"
)

func TestTruncateResultsClipsSnippetLines(t *testing.T) {
	long := strings.Repeat("s", 300)
	text := "Web search results for \"q\":\n1. Title stays intact (https://example.com)\n   " + long + "\n"

	got := truncateResults(text, 150, 2500)
	lines := strings.Split(got, "\n")
	if lines[1] != "1. Title stays intact (https://example.com)" {
		t.Errorf("title line modified: %q", lines[1])
	}
	if len(lines[2]) != 150+len("...") {
		t.Errorf("snippet line length = %d", len(lines[2]))
	}
	if !strings.HasSuffix(lines[2], "...") {
		t.Errorf("snippet line = %q", lines[2])
	}
}

func TestTruncateResultsAggregateCap(t *testing.T) {
	text := strings.Repeat("1. Result line\n", 500)
	got := truncateResults(text, 150, 2500)
	if !strings.HasSuffix(got, "\n[...truncated]") {
		t.Errorf("missing truncation marker: %q", got[len(got)-40:])
	}
	if len(got) != 2500+len("\n[...truncated]") {
		t.Errorf("len = %d", len(got))
	}
}

func TestTruncateResultsShortTextUntouched(t *testing.T) {
	text := "1. Short (https://x)\n   tiny snippet\n"
	if got := truncateResults(text, 150, 2500); got != text {
		t.Errorf("short text changed: %q", got)
	}
}
