package workflow

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/parleyhq/parley/pkg/models"
)

// Observer receives workflow events. It is invoked synchronously from
// the interpreter, so a slow observer backpressures execution instead
// of growing a buffer. A panicking observer is logged and the event
// counts as delivered.
type Observer func(event models.WorkflowEvent)

// emitter generates WorkflowEvents with monotonic sequencing for one
// workflow run.
type emitter struct {
	runID    string
	observer Observer
	logger   *slog.Logger
	sequence uint64 // atomic counter for monotonic sequencing
}

func newEmitter(runID string, observer Observer, logger *slog.Logger) *emitter {
	return &emitter{
		runID:    runID,
		observer: observer,
		logger:   logger,
	}
}

// base creates the base event with common fields populated.
func (e *emitter) base(eventType models.WorkflowEventType) models.WorkflowEvent {
	return models.WorkflowEvent{
		Version:  1,
		Type:     eventType,
		Time:     time.Now(),
		Sequence: atomic.AddUint64(&e.sequence, 1),
		RunID:    e.runID,
	}
}

// emit delivers one event to the observer.
func (e *emitter) emit(event models.WorkflowEvent) {
	if e.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("observer panicked", "event_type", event.Type, "panic", r)
		}
	}()
	e.observer(event)
}

// Start emits workflow_start with the full state graph.
func (e *emitter) Start(d *Definition) {
	event := e.base(models.EventWorkflowStart)
	event.Start = &models.WorkflowStartPayload{
		WorkflowID:  d.ID,
		Name:        d.Name,
		Description: d.Description,
		States:      d.StateInfos(),
	}
	e.emit(event)
}

// Narration emits workflow_narration.
func (e *emitter) Narration(text string) {
	event := e.base(models.EventWorkflowNarration)
	event.Narration = &models.WorkflowNarrationPayload{Text: text}
	e.emit(event)
}

// State emits workflow_state for a step becoming active, visited, or
// errored.
func (e *emitter) State(stateID string, status models.StateStatus, stepIndex, totalSteps int, stepName, detail string) {
	event := e.base(models.EventWorkflowState)
	event.State = &models.WorkflowStatePayload{
		StateID:    stateID,
		Status:     status,
		StepIndex:  stepIndex,
		TotalSteps: totalSteps,
		StepName:   stepName,
		Detail:     detail,
	}
	e.emit(event)
}

// Activity emits workflow_activity with an advisory timeout for UI
// progress timers.
func (e *emitter) Activity(activity string, timeoutSecs float64) {
	event := e.base(models.EventWorkflowActivity)
	event.Activity = &models.WorkflowActivityPayload{
		Activity:    activity,
		TimeoutSecs: timeoutSecs,
	}
	e.emit(event)
}

// Debug emits workflow_debug with per-step LLM timing.
func (e *emitter) Debug(payload *models.WorkflowDebugPayload) {
	event := e.base(models.EventWorkflowDebug)
	event.Debug = &models.WorkflowDebugPayload{}
	*event.Debug = *payload
	e.emit(event)
}

// LoopUpdate emits workflow_loop_update. An activeIndex of -1 means no
// child has started yet.
func (e *emitter) LoopUpdate(stateID string, children []string, activeIndex int) {
	if children == nil {
		children = []string{}
	}
	event := e.base(models.EventWorkflowLoopUpdate)
	event.LoopUpdate = &models.WorkflowLoopUpdatePayload{
		StateID:     stateID,
		Children:    children,
		ActiveIndex: activeIndex,
	}
	e.emit(event)
}

// Exit emits the terminal workflow_exit event.
func (e *emitter) Exit(reason models.ExitReason, errText string) {
	event := e.base(models.EventWorkflowExit)
	event.Exit = &models.WorkflowExitPayload{
		Reason: reason,
		Error:  errText,
	}
	e.emit(event)
}
