package orchestrator

import "strings"

// defaultHedgingPhrases are refusal fragments small local models emit
// instead of calling the search tool. Matching is lowercase substring.
var defaultHedgingPhrases = []string{
	"don't have access",
	"don't have real-time",
	"don't have current",
	"don't have the ability",
	"don't have live",
	"do not have access",
	"do not have real-time",
	"do not have current",
	"do not have the ability",
	"can't browse",
	"can't access the internet",
	"can't access the web",
	"can't search",
	"cannot browse",
	"cannot access the internet",
	"cannot access the web",
	"cannot search",
	"not able to browse",
	"not able to access",
	"not able to search",
	"unable to browse",
	"unable to access real",
	"unable to search",
	"my knowledge cutoff",
	"my training data",
	"information is outdated",
	"data is outdated",
	"may be outdated",
	"might be outdated",
	"as an ai",
	"as a language model",
	"as a large language model",
	"lack access",
	"beyond my capabilities",
	"outside my capabilities",
	"not available to me",
	"can't actually browse",
	"can't actually access",
	"can't actually search",
	"cannot actually browse",
	"cannot actually access",
	"cannot actually search",
	"don't actually have access",
	"still under development",
	"not accessible in real-time",
	"not accessible in real time",
	"isn't accessible",
	"is not accessible",
	"can't provide real-time",
	"cannot provide real-time",
	"can't provide you with real-time",
	"i can't answer that",
	"check yahoo finance",
	"check a financial",
	"visit a financial",
	"recommend checking",
}

// isHedging reports whether a reply contains a refusal phrase.
func isHedging(reply string, phrases []string) bool {
	lower := strings.ToLower(reply)
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
