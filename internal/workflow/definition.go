// Package workflow implements the declarative research pipelines: a
// small state machine whose transitions are driven by one-shot LLM
// reasoning, tool dispatch, and deterministic loops, with a structured
// event stream for observers.
package workflow

import "github.com/parleyhq/parley/pkg/models"

// StepType discriminates how a step executes.
type StepType string

const (
	// StepLLM renders a prompt, makes one focused LLM call, and
	// optionally dispatches a bound tool with the generated query.
	StepLLM StepType = "llm"

	// StepLoop dispatches the bound tool once per item of a list
	// produced by an earlier step.
	StepLoop StepType = "loop"

	// StepDirect dispatches the bound tool once, no LLM involved.
	StepDirect StepType = "direct"
)

// ParseMode selects structured-output handling for an LLM step.
type ParseMode string

const (
	// ParseNone stores the assistant text as-is.
	ParseNone ParseMode = ""

	// ParseQueryList expects a JSON array of search queries, with a
	// bullet-list fallback for models that ignore the format.
	ParseQueryList ParseMode = "query_list"

	// ParseClaim expects {"claim", "support_query", "counter_query"}.
	ParseClaim ParseMode = "claim"
)

// Step is a single state in a workflow.
type Step struct {
	ID   string
	Name string // human-readable, e.g. "Decomposing query"
	Type StepType

	// PromptTemplate carries {{placeholder}} references into the
	// state map. LLM steps only.
	PromptTemplate string

	// ToolName binds a single tool. Required for loop and direct
	// steps; optional for LLM steps (the generated text becomes the
	// tool's query).
	ToolName string

	// OutputKey names the state-map slot the step's output lands in.
	// Defaults to the step ID.
	OutputKey string

	// Next is the ID of the success transition; "" is terminal.
	Next string

	// Narration is spoken-progress text, also templated.
	Narration string

	// Parse and QueryCap apply to LLM steps producing query lists.
	Parse    ParseMode
	QueryCap int

	// LoopSource names the state key holding the []string a loop
	// iterates over.
	LoopSource string

	// ArgIndex selects the query a direct step dispatches: 1-based
	// into the extracted query list, 0 for the raw user utterance.
	ArgIndex int
}

// outputKey returns the state slot for this step's output.
func (s Step) outputKey() string {
	if s.OutputKey != "" {
		return s.OutputKey
	}
	return s.ID
}

// terminal reports whether the step ends the workflow.
func (s Step) terminal() bool {
	return s.Next == ""
}

// Definition is a complete workflow: trigger rules plus the step
// graph. Definitions are immutable after startup.
type Definition struct {
	ID          string
	Name        string
	Description string

	// TriggerPatterns feed the keyword router. Plain keywords get
	// word-boundary wrapping; fragments with regex metacharacters are
	// used verbatim.
	TriggerPatterns []string

	// MinQueryWords skips routing for short utterances.
	MinQueryWords int

	Steps []Step
}

// step returns a step by ID.
func (d *Definition) step(id string) (Step, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// StateInfos serializes the step graph for a workflow_start event, so
// a UI can render the state diagram before execution begins.
func (d *Definition) StateInfos() []models.StateInfo {
	states := make([]models.StateInfo, 0, len(d.Steps))
	for _, s := range d.Steps {
		states = append(states, models.StateInfo{
			StateID:    s.ID,
			Type:       string(s.Type),
			HasTool:    s.ToolName != "",
			ToolName:   s.ToolName,
			Narration:  s.Narration,
			NextStepID: s.Next,
		})
	}
	return states
}
