package workflow

import (
	"encoding/json"
	"regexp"
	"strings"
)

// bulletRe strips list markers ("1. ", "- ", "* ") from fallback
// query lines.
var bulletRe = regexp.MustCompile(`^[\d.\-*]+\s*`)

// stripCodeFence removes a ```json ... ``` wrapper if present. Models
// routinely fence JSON even when told not to.
func stripCodeFence(text string) string {
	stripped := strings.TrimSpace(text)
	if !strings.HasPrefix(stripped, "```") {
		return stripped
	}
	lines := strings.Split(stripped, "\n")
	if len(lines) >= 3 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
	}
	return stripped
}

// parseQueryList extracts search queries from LLM output. The happy
// path is a JSON array of strings; the fallback splits lines and
// strips bullets, capped at max entries.
func parseQueryList(text string, max int) []string {
	stripped := stripCodeFence(text)

	var arr []any
	if err := json.Unmarshal([]byte(stripped), &arr); err == nil {
		queries := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				queries = append(queries, s)
			} else {
				b, _ := json.Marshal(item)
				queries = append(queries, string(b))
			}
		}
		return queries
	}

	var queries []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(bulletRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		queries = append(queries, line)
		if len(queries) == max {
			break
		}
	}
	return queries
}

// claimExtraction is the expected shape of a fact-check extraction.
type claimExtraction struct {
	Claim        string `json:"claim"`
	SupportQuery string `json:"support_query"`
	CounterQuery string `json:"counter_query"`
}

// parseClaim extracts the claim and its query pair. When the model
// ignored the JSON contract, the full text stands in for the claim and
// the caller falls back to searching the raw utterance.
func parseClaim(text string) (claim string, queries []string, ok bool) {
	stripped := stripCodeFence(text)

	var parsed claimExtraction
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil || parsed.Claim == "" {
		return text, nil, false
	}
	for _, q := range []string{parsed.SupportQuery, parsed.CounterQuery} {
		if q != "" {
			queries = append(queries, q)
		}
	}
	return parsed.Claim, queries, true
}

// stripQuotes removes surrounding quote characters from a generated
// search query.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	s = strings.Trim(s, `'`)
	return s
}
