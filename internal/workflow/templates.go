package workflow

// The three built-in research pipelines. Definition order matters: the
// router tries triggers in this order and the first match wins.
var templates = buildTemplates()

// Definitions returns the workflow catalog in routing order. The
// returned slice and its definitions are shared and must not be
// mutated.
func Definitions() []*Definition {
	return templates
}

// Get looks up a workflow by ID.
func Get(id string) (*Definition, bool) {
	for _, d := range templates {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

func buildTemplates() []*Definition {
	researchCompare := &Definition{
		ID:          "research_compare",
		Name:        "Research & Compare",
		Description: "Establish ranking, decompose into per-entity lookups, synthesize",
		TriggerPatterns: []string{
			"compare", "comparison", "versus", "vs",
			`top \d+`,
			"top (three|four|five|six|seven|eight|nine|ten)",
			"each", "both",
			"market cap", "difference between",
			"which is better", "pros and cons",
			"biggest", "largest", "highest",
		},
		MinQueryWords: 6,
		Steps: []Step{
			{
				ID:   "initial_lookup",
				Name: "Establishing ranking",
				Type: StepLLM,
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Generate a web search query to find the CURRENT, AUTHORITATIVE " +
					"ranking with company/entity names listed. The query MUST include " +
					"the year {{current_year}} so results are fresh.\n\n" +
					"Good: 'top 5 S&P 500 companies by market cap list {{current_year}}'\n" +
					"Bad:  'S&P 500 stocks'\n\n" +
					"Return ONLY the search query string, nothing else.",
				ToolName:  "web_search",
				Next:      "decompose",
				Narration: "Searching for current ranking...",
			},
			{
				ID:        "decompose",
				Name:      "Decomposing query",
				Type:      StepLLM,
				OutputKey: "decompose_result",
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Here are current search results:\n" +
					"---BEGIN SEARCH RESULTS---\n{{initial_lookup}}\n---END SEARCH RESULTS---\n\n" +
					"TASK: Identify the entities the user is asking about and create " +
					"one search query per entity to look up current data.\n\n" +
					"RULES:\n" +
					"- FIRST check the search results for entity names\n" +
					"- If the search results don't list specific entity names, use your " +
					"knowledge to identify the most likely current entities and we will " +
					"verify with search\n" +
					"- If the user asked for 'top N', return EXACTLY N entities\n" +
					"- Include ticker symbols when known\n" +
					"- Include '{{current_year}}' in each query\n\n" +
					"Return ONLY a JSON array of search queries. Example format:\n" +
					"[\"Apple AAPL market cap {{current_year}}\", " +
					"\"NVIDIA NVDA market cap {{current_year}}\", " +
					"\"Microsoft MSFT market cap {{current_year}}\"]\n\n" +
					"JSON array:",
				Parse:     ParseQueryList,
				QueryCap:  5,
				Next:      "search_each",
				Narration: "Decomposing into individual lookups...",
			},
			{
				ID:         "search_each",
				Name:       "Searching each entity",
				Type:       StepLoop,
				ToolName:   "web_search",
				LoopSource: "search_queries",
				OutputKey:  "search_results",
				Next:       "synthesize",
				Narration:  "Looking up each entity...",
			},
			{
				ID:   "synthesize",
				Name: "Synthesizing",
				Type: StepLLM,
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Here are per-entity search results:\n{{search_results}}\n\n" +
					"RULES:\n" +
					"- Present the entities in RANKED ORDER (largest to smallest, " +
					"best to worst, etc. — matching the user's question)\n" +
					"- ONLY cite numbers that appear in the search results above\n" +
					"- If your training knowledge contradicts the search results, " +
					"TRUST THE SEARCH RESULTS — they are more recent\n" +
					"- Include specific numbers/facts from the results\n" +
					"- Keep it conversational — this will be spoken aloud by a voice " +
					"assistant (2-4 sentences)",
				Narration: "Putting it all together...",
			},
		},
	}

	deepResearch := &Definition{
		ID:          "deep_research",
		Name:        "Deep Research",
		Description: "Initial search, evaluate gaps, targeted follow-up, synthesize",
		TriggerPatterns: []string{
			"tell me about", "research", "explain in detail",
			"what's happening with", "deep dive",
			"comprehensive", "thorough",
		},
		MinQueryWords: 5,
		Steps: []Step{
			{
				ID:   "initial_search",
				Name: "Initial search",
				Type: StepLLM,
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Generate a focused web search query to find the most relevant, " +
					"current information. Include '{{current_year}}' in the query.\n\n" +
					"Return ONLY the search query string, nothing else.",
				ToolName:  "web_search",
				Next:      "evaluate_gaps",
				Narration: "Searching for {{user_query_short}}...",
			},
			{
				ID:        "evaluate_gaps",
				Name:      "Evaluating gaps",
				Type:      StepLLM,
				OutputKey: "gap_analysis",
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Initial search results:\n{{initial_search}}\n\n" +
					"What key information is still missing to fully answer this " +
					"question? Generate 1-2 follow-up search queries as a JSON " +
					"array to fill the gaps. Include '{{current_year}}' in queries.\n\n" +
					"Return ONLY the JSON array of search query strings.",
				Parse:     ParseQueryList,
				QueryCap:  3,
				Next:      "targeted_search",
				Narration: "Evaluating what else we need...",
			},
			{
				ID:         "targeted_search",
				Name:       "Targeted search",
				Type:       StepLoop,
				ToolName:   "web_search",
				LoopSource: "search_queries",
				OutputKey:  "search_results",
				Next:       "synthesize",
				Narration:  "Running follow-up searches...",
			},
			{
				ID:   "synthesize",
				Name: "Synthesizing",
				Type: StepLLM,
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Initial findings:\n{{initial_search}}\n\n" +
					"Follow-up findings:\n{{search_results}}\n\n" +
					"RULES:\n" +
					"- ONLY cite facts/numbers from the search results above\n" +
					"- If your training knowledge contradicts the search results, " +
					"TRUST THE SEARCH RESULTS\n" +
					"- Include specific facts, dates, and numbers\n" +
					"- Keep it conversational for a voice assistant (3-5 sentences)",
				Narration: "Putting it all together...",
			},
		},
	}

	factCheck := &Definition{
		ID:          "fact_check",
		Name:        "Fact Check",
		Description: "Extract claim, search evidence, search counter-evidence, verdict",
		TriggerPatterns: []string{
			"is it true", "fact check", "verify",
			"debunk", "is that correct", "true that",
			"really true", "actually true",
		},
		MinQueryWords: 6,
		Steps: []Step{
			{
				ID:        "extract_claim",
				Name:      "Extracting claim",
				Type:      StepLLM,
				OutputKey: "claims",
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Extract the core factual claim being questioned. " +
					"Then generate TWO search queries:\n" +
					"1. A query to find evidence SUPPORTING the claim (include '{{current_year}}')\n" +
					"2. A query to find evidence AGAINST the claim (include '{{current_year}}')\n\n" +
					"Return JSON: {\"claim\": \"...\", \"support_query\": \"...\", " +
					"\"counter_query\": \"...\"}",
				Parse:     ParseClaim,
				Next:      "search_evidence",
				Narration: "Extracting the claim to check...",
			},
			{
				ID:        "search_evidence",
				Name:      "Searching for evidence",
				Type:      StepDirect,
				ToolName:  "web_search",
				OutputKey: "evidence",
				ArgIndex:  1,
				Next:      "search_counter",
				Narration: "Searching for supporting evidence...",
			},
			{
				ID:        "search_counter",
				Name:      "Searching counter-evidence",
				Type:      StepDirect,
				ToolName:  "web_search",
				OutputKey: "counter_evidence",
				ArgIndex:  2,
				Next:      "verdict",
				Narration: "Searching for counter-evidence...",
			},
			{
				ID:   "verdict",
				Name: "Rendering verdict",
				Type: StepLLM,
				PromptTemplate: "Today is {{current_date}}.\n" +
					"The user asked: {{user_query}}\n\n" +
					"Claim: {{claims}}\n\n" +
					"Supporting evidence:\n{{evidence}}\n\n" +
					"Counter-evidence:\n{{counter_evidence}}\n\n" +
					"RULES:\n" +
					"- Base your verdict ONLY on the evidence above\n" +
					"- Do NOT rely on training knowledge for factual claims\n" +
					"- Render a fair verdict: true, false, partly true, or unverified\n" +
					"- Cite specific evidence from the search results\n" +
					"- Keep it conversational for a voice assistant (2-4 sentences)",
				Narration: "Rendering verdict...",
			},
		},
	}

	return []*Definition{researchCompare, deepResearch, factCheck}
}
