package workflow

import "strings"

// Truncation defaults for intermediate step outputs. Small models get
// slow and sloppy with multi-kilobyte prompts; the entity names a
// decompose step needs live in the numbered title lines, which stay
// intact.
const (
	DefaultSnippetCap   = 150
	DefaultAggregateCap = 2500
)

// truncateResults shortens formatted search output used as input to a
// later LLM step. Snippet lines are recognized by their three-space
// indent; title lines pass through untouched. The whole text is capped
// at aggregateCap.
func truncateResults(text string, snippetCap, aggregateCap int) string {
	if snippetCap <= 0 {
		snippetCap = DefaultSnippetCap
	}
	if aggregateCap <= 0 {
		aggregateCap = DefaultAggregateCap
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "   ") && len(line) > snippetCap {
			out = append(out, line[:snippetCap]+"...")
		} else {
			out = append(out, line)
		}
	}
	result := strings.Join(out, "\n")
	if len(result) > aggregateCap {
		result = result[:aggregateCap] + "\n[...truncated]"
	}
	return result
}
