package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/observability"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/pkg/models"
)

const (
	// Advisory wall-clock budgets carried on activity events. The
	// engine enforces neither; providers own their timeouts.
	llmTimeoutSecs    = 120.0
	searchTimeoutSecs = 5.0

	// DefaultLoopDelay spaces loop searches to stay under public
	// search-API rate limits.
	DefaultLoopDelay = 1500 * time.Millisecond

	workflowSystemPrompt = "You are a research assistant. Follow instructions precisely."

	// queriesKey is the state slot where query-producing steps leave
	// their list for loop and direct steps.
	queriesKey = "search_queries"
)

// Config tunes one engine instance.
type Config struct {
	Model        string
	MaxTokens    int
	LoopDelay    time.Duration // 0 uses DefaultLoopDelay
	SnippetCap   int
	AggregateCap int
}

// Engine interprets workflow definitions. One engine serves all
// sessions; each Run carries its own state.
type Engine struct {
	provider llm.Provider
	registry *tools.Registry
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(provider llm.Provider, registry *tools.Registry, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if cfg.LoopDelay <= 0 {
		cfg.LoopDelay = DefaultLoopDelay
	}
	if cfg.SnippetCap <= 0 {
		cfg.SnippetCap = DefaultSnippetCap
	}
	if cfg.AggregateCap <= 0 {
		cfg.AggregateCap = DefaultAggregateCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		provider: provider,
		registry: registry,
		cfg:      cfg,
		logger:   logger.With("component", "workflow"),
		metrics:  metrics,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// run carries the mutable state of one workflow execution.
type run struct {
	def     *Definition
	query   string
	state   map[string]any
	emitter *emitter
}

// vars builds the template variable map: the ambient variables plus
// every state-map entry.
func (r *run) vars(now time.Time) map[string]any {
	vars := baseVars(r.query, now)
	for k, v := range r.state {
		vars[k] = v
	}
	return vars
}

// Run interprets one workflow against an utterance. The final text is
// the terminal step's untruncated output. Events describing execution
// go to the observer in strict execution order, ending with
// workflow_exit.
func (en *Engine) Run(ctx context.Context, workflowID, utterance string, observer Observer) (string, error) {
	def, ok := Get(workflowID)
	if !ok {
		return "", fmt.Errorf("unknown workflow %q", workflowID)
	}
	if len(def.Steps) == 0 {
		return "", fmt.Errorf("workflow %q has no steps", workflowID)
	}

	em := newEmitter(uuid.NewString(), observer, en.logger)
	r := &run{
		def:     def,
		query:   utterance,
		state:   make(map[string]any),
		emitter: em,
	}

	en.logger.Info("starting workflow", "workflow", def.ID, "query", shorten(utterance, 60))
	em.Start(def)

	position := make(map[string]int, len(def.Steps))
	for i, s := range def.Steps {
		position[s.ID] = i + 1
	}
	total := len(def.Steps)

	var final string
	cursor := def.Steps[0].ID
	for cursor != "" {
		step, ok := def.step(cursor)
		if !ok {
			err := fmt.Errorf("workflow %s: transition to unknown step %q", def.ID, cursor)
			return "", en.fail(em, def, err)
		}
		if err := ctx.Err(); err != nil {
			return "", en.cancel(em, def, err)
		}

		idx := position[step.ID]
		em.State(step.ID, models.StateActive, idx, total, step.Name, "")
		if step.Narration != "" {
			em.Narration(renderNarration(step.Narration, r.vars(en.now())))
		}

		output, err := en.executeStep(ctx, r, step)
		if err != nil {
			if ctx.Err() != nil {
				return "", en.cancel(em, def, ctx.Err())
			}
			if en.metrics != nil {
				en.metrics.RecordWorkflowStep(def.ID, step.ID, "error")
			}
			em.State(step.ID, models.StateError, idx, total, step.Name, err.Error())
			return "", en.fail(em, def, fmt.Errorf("step %s: %w", step.ID, err))
		}
		if en.metrics != nil {
			en.metrics.RecordWorkflowStep(def.ID, step.ID, "success")
		}
		em.State(step.ID, models.StateVisited, idx, total, step.Name, "")

		if step.terminal() {
			final = output
		}
		cursor = step.Next
	}

	if en.metrics != nil {
		en.metrics.RecordWorkflowRun(def.ID, string(models.ExitComplete))
	}
	em.Exit(models.ExitComplete, "")
	return final, nil
}

func (en *Engine) fail(em *emitter, def *Definition, err error) error {
	en.logger.Error("workflow failed", "workflow", def.ID, "error", err)
	if en.metrics != nil {
		en.metrics.RecordWorkflowRun(def.ID, string(models.ExitError))
	}
	em.Exit(models.ExitError, err.Error())
	return err
}

func (en *Engine) cancel(em *emitter, def *Definition, err error) error {
	en.logger.Info("workflow cancelled", "workflow", def.ID)
	if en.metrics != nil {
		en.metrics.RecordWorkflowRun(def.ID, string(models.ExitCancelled))
	}
	em.Exit(models.ExitCancelled, "")
	return err
}

// executeStep runs one step and returns its stored output. Everything
// except a terminal step's output is truncated before storage, keeping
// downstream prompts small.
func (en *Engine) executeStep(ctx context.Context, r *run, step Step) (string, error) {
	var output string
	var err error

	switch step.Type {
	case StepLLM:
		output, err = en.executeLLMStep(ctx, r, step)
	case StepLoop:
		output, err = en.executeLoopStep(ctx, r, step)
	case StepDirect:
		output, err = en.executeDirectStep(ctx, r, step)
	default:
		err = fmt.Errorf("unknown step type %q", step.Type)
	}
	if err != nil {
		return "", err
	}

	if step.Type != StepLoop { // loop steps store their list themselves
		if step.terminal() {
			r.state[step.outputKey()] = output
		} else {
			output = truncateResults(output, en.cfg.SnippetCap, en.cfg.AggregateCap)
			r.state[step.outputKey()] = output
		}
	}
	return output, nil
}

// executeLLMStep makes one focused LLM call. The rendered prompt is a
// one-shot user message; conversation history stays out of workflow
// reasoning. A bound tool runs afterwards with either the model's own
// tool call or the generated text as the query.
func (en *Engine) executeLLMStep(ctx context.Context, r *run, step Step) (string, error) {
	prompt, err := renderTemplate(step.PromptTemplate, r.vars(en.now()))
	if err != nil {
		return "", err
	}

	modelLabel := en.cfg.Model
	if modelLabel == "" {
		modelLabel = "LLM"
	}
	r.emitter.Activity(fmt.Sprintf("Querying %s...", modelLabel), llmTimeoutSecs)

	req := &llm.Request{
		Model:  en.cfg.Model,
		System: workflowSystemPrompt,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: prompt},
		},
		MaxTokens: en.cfg.MaxTokens,
		// Focused prompts (query generation, JSON extraction,
		// synthesis) gain nothing from extended reasoning.
		DisableThinking: true,
	}
	if step.ToolName != "" {
		if schema, ok := en.registry.Schema(step.ToolName); ok {
			req.Tools = []llm.ToolSchema{schema}
		}
	}

	start := time.Now()
	res, err := en.provider.Generate(ctx, req)
	elapsed := time.Since(start)
	if en.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		promptTokens, completionTokens := 0, 0
		if res != nil {
			promptTokens, completionTokens = res.PromptTokens, res.OutputTokens
		}
		en.metrics.RecordLLMRequest(en.provider.Name(), en.cfg.Model, status, elapsed.Seconds(), promptTokens, completionTokens)
	}
	if err != nil {
		return "", err
	}

	text, _, _ := llm.StripThinking(res.Text)
	en.emitDebug(r, step, res, elapsed)

	switch step.Parse {
	case ParseQueryList:
		queries := parseQueryList(text, step.QueryCap)
		r.state[queriesKey] = queries
		en.logger.Info("parsed query list", "step", step.ID, "count", len(queries))
	case ParseClaim:
		claim, queries, ok := parseClaim(text)
		if !ok {
			queries = []string{r.query}
		}
		text = claim
		r.state[queriesKey] = queries
	}

	if step.ToolName == "" {
		return text, nil
	}

	// Bound tool: prefer a structured call; otherwise the generated
	// text is the search query.
	call, ok := boundCall(res.ToolCalls, step.ToolName)
	if !ok {
		query := stripQuotes(text)
		en.logger.Info("generated search query", "step", step.ID, "query", query)
		r.emitter.Activity("Searching: "+shorten(query, 60), searchTimeoutSecs)
		return en.dispatch(ctx, step.ToolName, query)
	}
	r.emitter.Activity("Searching via "+step.ToolName, searchTimeoutSecs)
	result, err := en.registry.Dispatch(ctx, call)
	if err != nil {
		return "", err
	}
	return result, nil
}

// executeLoopStep dispatches the bound tool once per query. One bad
// sub-query records a sentinel and the loop continues; cancellation
// discards partial results.
func (en *Engine) executeLoopStep(ctx context.Context, r *run, step Step) (string, error) {
	source, present := r.state[step.LoopSource]
	queries, isList := source.([]string)
	if !present || !isList {
		return "", fmt.Errorf("loop source %q missing from state", step.LoopSource)
	}

	r.emitter.LoopUpdate(step.ID, queries, -1)
	if len(queries) == 0 {
		en.logger.Warn("loop step has no queries", "step", step.ID)
		r.state[step.outputKey()] = []string{}
		return "", nil
	}

	results := make([]string, 0, len(queries))
	for i, query := range queries {
		if i > 0 {
			if err := en.sleep(ctx, en.cfg.LoopDelay); err != nil {
				return "", err
			}
		}

		detail := fmt.Sprintf("Searching %d/%d: %s", i+1, len(queries), shorten(query, 50))
		r.emitter.LoopUpdate(step.ID, queries, i)
		r.emitter.Activity(detail, searchTimeoutSecs)

		result, err := en.dispatch(ctx, step.ToolName, query)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			en.logger.Warn("loop search failed", "step", step.ID, "query", query, "error", err)
			results = append(results, fmt.Sprintf("[Query: %s]\nSearch failed: %v", query, err))
			continue
		}
		truncated := truncateResults(result, en.cfg.SnippetCap, en.cfg.AggregateCap)
		results = append(results, fmt.Sprintf("[Query: %s]\n%s", query, truncated))
	}

	r.state[step.outputKey()] = results
	return "", nil
}

// executeDirectStep dispatches the bound tool once. ArgIndex selects a
// query from the extracted list; failure stores a sentinel rather than
// killing the workflow, so a verdict can still weigh what did arrive.
func (en *Engine) executeDirectStep(ctx context.Context, r *run, step Step) (string, error) {
	query := r.query
	if step.ArgIndex > 0 {
		if queries, ok := r.state[queriesKey].([]string); ok && len(queries) >= step.ArgIndex {
			query = queries[step.ArgIndex-1]
		}
	}

	r.emitter.Activity(fmt.Sprintf("Executing %s...", step.ToolName), searchTimeoutSecs)

	result, err := en.dispatch(ctx, step.ToolName, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		en.logger.Warn("direct step failed", "step", step.ID, "error", err)
		return fmt.Sprintf("Search failed: %v", err), nil
	}
	return result, nil
}

// dispatch runs one {"query": q} tool call through the registry.
func (en *Engine) dispatch(ctx context.Context, toolName, query string) (string, error) {
	input, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return "", err
	}

	start := time.Now()
	result, err := en.registry.Dispatch(ctx, models.ToolCall{
		ID:    "call_" + uuid.NewString(),
		Name:  toolName,
		Input: input,
	})
	if en.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		en.metrics.RecordToolExecution(toolName, status, time.Since(start).Seconds())
	}
	return result, err
}

func (en *Engine) emitDebug(r *run, step Step, res *llm.Result, elapsed time.Duration) {
	tokPerSec := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		tokPerSec = float64(res.OutputTokens) / secs
	}
	var thinkTag *string
	if res.ThinkTag != "" {
		tag := res.ThinkTag
		thinkTag = &tag
	}
	if en.metrics != nil {
		en.metrics.RecordThinkTokens(en.provider.Name(), en.cfg.Model, res.ThinkTokens)
	}
	r.emitter.Debug(&models.WorkflowDebugPayload{
		Step:          step.ID,
		Model:         en.cfg.Model,
		EvalTokens:    res.OutputTokens,
		TokPerSec:     tokPerSec,
		RawChars:      res.RawChars,
		PromptTokens:  res.PromptTokens,
		TotalMS:       elapsed.Milliseconds(),
		ThinkTokens:   res.ThinkTokens,
		ThinkDetected: thinkTag,
	})
}

// boundCall finds the first tool call matching the step's binding.
func boundCall(calls []models.ToolCall, toolName string) (models.ToolCall, bool) {
	for _, c := range calls {
		if c.Name == toolName {
			return c, true
		}
	}
	return models.ToolCall{}, false
}

// shorten clips a string for logs and UI details.
func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
