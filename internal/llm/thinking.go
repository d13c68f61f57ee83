package llm

import (
	"regexp"
	"strings"
)

// Reasoning tags some models wrap chain-of-thought output in. The
// strip pipeline removes them before any consumer sees the text.
var thinkTags = []string{"think", "reflection", "reasoning"}

type tagPatterns struct {
	tag  string
	pair *regexp.Regexp
	open *regexp.Regexp
}

var thinkPatterns = func() []tagPatterns {
	out := make([]tagPatterns, 0, len(thinkTags))
	for _, tag := range thinkTags {
		out = append(out, tagPatterns{
			tag:  tag,
			pair: regexp.MustCompile(`(?s)<` + tag + `>.*?</` + tag + `>`),
			open: regexp.MustCompile(`(?s)<` + tag + `>.*$`),
		})
	}
	return out
}()

// StripThinking removes reasoning-tag content from model output. Three
// ordered rewrites per tag: complete tag pairs, an unclosed open tag
// through end of text, and a dangling partial tag fragment at end of
// text. Returns the cleaned text, the number of bytes removed, and the
// first tag name encountered ("" if none). Applying it to its own
// output is a no-op.
func StripThinking(text string) (string, int, string) {
	out := text
	detected := ""
	for _, p := range thinkPatterns {
		if !strings.Contains(out, "<"+p.tag) {
			continue
		}
		if detected == "" {
			detected = p.tag
		}
		out = p.pair.ReplaceAllString(out, "")
		out = p.open.ReplaceAllString(out, "")
	}
	out = trimTagFragment(out)
	out = strings.TrimSpace(out)
	return out, len(text) - len(out), detected
}

// trimTagFragment drops a truncated tag at end of text, e.g. output
// cut off mid-"</reflec". Only fragments that are prefixes of a known
// reasoning tag are removed.
func trimTagFragment(text string) string {
	idx := strings.LastIndexByte(text, '<')
	if idx < 0 || strings.ContainsRune(text[idx:], '>') {
		return text
	}
	frag := text[idx+1:]
	frag = strings.TrimPrefix(frag, "/")
	for _, tag := range thinkTags {
		if strings.HasPrefix(tag, frag) {
			return text[:idx]
		}
	}
	return text
}
