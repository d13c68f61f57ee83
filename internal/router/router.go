// Package router decides, before any model call, whether an utterance
// should run a multi-step workflow instead of the conversational loop.
// Matching is pure string work so routing adds no latency to the
// voice path.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule binds one workflow to its trigger patterns. Patterns are plain
// keywords unless they contain regex metacharacters, in which case they
// are used verbatim.
type Rule struct {
	WorkflowID string
	Patterns   []string

	// MinQueryWords skips the rule for utterances shorter than this
	// many words. Short phrases like "compare notes" are almost never
	// a research request.
	MinQueryWords int
}

type compiledRule struct {
	workflowID string
	re         *regexp.Regexp
	minWords   int
}

// Router matches utterances against workflow trigger rules in
// definition order, first match wins. It is stateless and safe for
// concurrent use.
type Router struct {
	rules []compiledRule
}

// metaChars marks a pattern as already being a regex fragment.
const metaChars = `\+*?[]()`

func New(rules []Rule) (*Router, error) {
	r := &Router{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		if len(rule.Patterns) == 0 {
			continue
		}
		parts := make([]string, 0, len(rule.Patterns))
		for _, p := range rule.Patterns {
			if strings.ContainsAny(p, metaChars) {
				parts = append(parts, p)
			} else {
				parts = append(parts, `\b`+p+`\b`)
			}
		}
		re, err := regexp.Compile(`(?i)` + strings.Join(parts, "|"))
		if err != nil {
			return nil, fmt.Errorf("compile triggers for workflow %s: %w", rule.WorkflowID, err)
		}
		r.rules = append(r.rules, compiledRule{
			workflowID: rule.WorkflowID,
			re:         re,
			minWords:   rule.MinQueryWords,
		})
	}
	return r, nil
}

// Route returns the first workflow whose triggers match the utterance.
// Rules whose word-count floor is not met are skipped, not failed.
func (r *Router) Route(utterance string) (string, bool) {
	words := len(strings.Fields(utterance))
	for _, rule := range r.rules {
		if words < rule.minWords {
			continue
		}
		if rule.re.MatchString(utterance) {
			return rule.workflowID, true
		}
	}
	return "", false
}
