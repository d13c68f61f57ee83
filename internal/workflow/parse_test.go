package workflow

import (
	"strings"
	"testing"
)

func TestParseQueryListJSON(t *testing.T) {
	got := parseQueryList(`["Apple AAPL market cap 2026", "NVIDIA NVDA market cap 2026"]`, 5)
	if len(got) != 2 || got[0] != "Apple AAPL market cap 2026" {
		t.Errorf("parseQueryList = %v", got)
	}
}

func TestParseQueryListCodeFenced(t *testing.T) {
	text := "```json\n[\"one 2026\", \"two 2026\"]\n```"
	got := parseQueryList(text, 5)
	if len(got) != 2 || got[1] != "two 2026" {
		t.Errorf("parseQueryList = %v", got)
	}
}

func TestParseQueryListLineFallback(t *testing.T) {
	text := "1. Apple market cap 2026\n2. Microsoft market cap 2026\n- Google market cap 2026\n\n* Amazon market cap 2026"
	got := parseQueryList(text, 3)
	want := []string{"Apple market cap 2026", "Microsoft market cap 2026", "Google market cap 2026"}
	if len(got) != 3 {
		t.Fatalf("parseQueryList = %v, want 3 entries", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseQueryListEmptyArray(t *testing.T) {
	if got := parseQueryList("[]", 5); len(got) != 0 {
		t.Errorf("parseQueryList = %v", got)
	}
}

func TestParseClaim(t *testing.T) {
	text := `{"claim": "goldfish have 3-second memories", "support_query": "goldfish memory 2026", "counter_query": "goldfish memory myth 2026"}`
	claim, queries, ok := parseClaim(text)
	if !ok {
		t.Fatal("parseClaim failed")
	}
	if claim != "goldfish have 3-second memories" {
		t.Errorf("claim = %q", claim)
	}
	if len(queries) != 2 || queries[1] != "goldfish memory myth 2026" {
		t.Errorf("queries = %v", queries)
	}
}

func TestParseClaimNonJSONFallsBack(t *testing.T) {
	claim, queries, ok := parseClaim("The claim is that goldfish forget everything.")
	if ok {
		t.Error("expected fallback for non-JSON")
	}
	if !strings.Contains(claim, "goldfish") {
		t.Errorf("claim = %q", claim)
	}
	if len(queries) != 0 {
		t.Errorf("queries = %v", queries)
	}
}

func TestStripQuotes(t *testing.T) {
	for in, want := range map[string]string{
		`"top 5 companies 2026"`:  "top 5 companies 2026",
		`'weather austin 2026'`:   "weather austin 2026",
		`  plain query  `:         "plain query",
		`say "hello" to the team`: `say "hello" to the team`,
	} {
		if got := stripQuotes(in); got != want {
			t.Errorf("stripQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}
