package models

import "time"

// WorkflowEvent is the unified observation event for workflow runs.
// It provides a single event stream that drives UI state diagrams,
// progress timers, and per-step debugging.
//
// Design principles:
//   - Versioned and forward-compatible (add fields, don't rename/remove)
//   - Single Type discriminator with optional payload pointers
//   - Monotonic Sequence for ordering guarantees within a run
type WorkflowEvent struct {
	// Version for forward compatibility. Current version: 1.
	Version int `json:"version"`

	// Type identifies the kind of event.
	Type WorkflowEventType `json:"type"`

	// Time is when the event occurred.
	Time time.Time `json:"time"`

	// Sequence is monotonic within a run for ordering guarantees.
	Sequence uint64 `json:"seq"`

	// RunID identifies the workflow instance.
	RunID string `json:"run_id,omitempty"`

	// Exactly one payload should be non-nil for a given Type.
	Start      *WorkflowStartPayload      `json:"start,omitempty"`
	Narration  *WorkflowNarrationPayload  `json:"narration,omitempty"`
	State      *WorkflowStatePayload      `json:"state,omitempty"`
	Activity   *WorkflowActivityPayload   `json:"activity,omitempty"`
	Debug      *WorkflowDebugPayload      `json:"debug,omitempty"`
	LoopUpdate *WorkflowLoopUpdatePayload `json:"loop_update,omitempty"`
	Exit       *WorkflowExitPayload       `json:"exit,omitempty"`
}

// WorkflowEventType identifies the kind of workflow event.
type WorkflowEventType string

const (
	EventWorkflowStart      WorkflowEventType = "workflow_start"
	EventWorkflowNarration  WorkflowEventType = "workflow_narration"
	EventWorkflowState      WorkflowEventType = "workflow_state"
	EventWorkflowActivity   WorkflowEventType = "workflow_activity"
	EventWorkflowDebug      WorkflowEventType = "workflow_debug"
	EventWorkflowLoopUpdate WorkflowEventType = "workflow_loop_update"
	EventWorkflowExit       WorkflowEventType = "workflow_exit"
)

// StateStatus is the lifecycle phase of one workflow step as seen by an
// observer: active while running, then exactly one of visited or error.
type StateStatus string

const (
	StateActive  StateStatus = "active"
	StateVisited StateStatus = "visited"
	StateError   StateStatus = "error"
)

// ExitReason says how a workflow run terminated.
type ExitReason string

const (
	ExitComplete  ExitReason = "complete"
	ExitCancelled ExitReason = "cancelled"
	ExitError     ExitReason = "error"
)

// StateInfo describes one step of a workflow definition, carried on the
// workflow_start event so a UI can render the state diagram before
// execution begins.
type StateInfo struct {
	StateID    string `json:"state_id"`
	Type       string `json:"type"`
	HasTool    bool   `json:"has_tool"`
	ToolName   string `json:"tool_name,omitempty"`
	Narration  string `json:"narration,omitempty"`
	NextStepID string `json:"next_step_id,omitempty"`
}

// WorkflowStartPayload announces a run before its first step.
type WorkflowStartPayload struct {
	WorkflowID  string      `json:"workflow_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	States      []StateInfo `json:"states"`
}

// WorkflowNarrationPayload carries user-facing interim speech for a step.
type WorkflowNarrationPayload struct {
	Text string `json:"text"`
}

// WorkflowStatePayload reports a step lifecycle transition.
type WorkflowStatePayload struct {
	StateID    string      `json:"state_id"`
	Status     StateStatus `json:"status"`
	StepIndex  int         `json:"step_index"`
	TotalSteps int         `json:"total_steps"`
	StepName   string      `json:"step_name"`
	Detail     string      `json:"detail,omitempty"`
}

// WorkflowActivityPayload starts a UI progress timer for a long-running
// step. TimeoutSecs is advisory only; nothing enforces it.
type WorkflowActivityPayload struct {
	Activity    string  `json:"activity"`
	TimeoutSecs float64 `json:"timeout_secs"`
}

// WorkflowDebugPayload carries per-step LLM timing observations,
// emitted after each LLM-backed step completes. ThinkDetected is the
// reasoning tag name that was stripped, or nil when none was seen.
type WorkflowDebugPayload struct {
	Step          string  `json:"step"`
	Model         string  `json:"model"`
	EvalTokens    int     `json:"eval_tokens"`
	TokPerSec     float64 `json:"tok_per_sec"`
	RawChars      int     `json:"raw_chars"`
	PromptTokens  int     `json:"prompt_tokens"`
	TotalMS       int64   `json:"total_ms"`
	ThinkTokens   int     `json:"think_tokens"`
	ThinkDetected *string `json:"think_detected"`
}

// WorkflowLoopUpdatePayload reports loop iteration progress.
// ActiveIndex is -1 before the first child starts.
type WorkflowLoopUpdatePayload struct {
	StateID     string   `json:"state_id"`
	Children    []string `json:"children"`
	ActiveIndex int      `json:"active_index"`
}

// WorkflowExitPayload is always the last event of a run.
type WorkflowExitPayload struct {
	Reason ExitReason `json:"reason"`
	Error  string     `json:"error,omitempty"`
}
