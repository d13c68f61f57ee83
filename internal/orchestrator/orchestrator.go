// Package orchestrator runs the conversational path: a bounded
// tool-calling loop over one user utterance, with hedging detection, a
// safety-net search, plain-text tool-call recovery, and think-block
// stripping as a guard. Multi-step research goes through the workflow
// engine instead.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/observability"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/pkg/models"
)

const (
	defaultMaxIterations = 5

	fallbackReply = "I wasn't able to complete that request."

	// retryDirective is appended when the model hedges after a search
	// already ran; it is removed from history once the regenerated
	// answer arrives.
	retryDirective = "You already searched the web and received results above. " +
		"Use those results to answer my question directly. " +
		"Do not say you cannot access real-time data — you just did."

	searchClassifierPrompt = "Extract a clean web search query from this user message. " +
		"Strip conversational filler and keep only the factual question.\n\n" +
		"Reply with ONLY the search query, nothing else.\n\n" +
		"Examples:\n" +
		"User: 'What is the weather today in Austin?' → weather in Austin today\n" +
		"User: 'Yes, look that up, what's the S&P 500?' → S&P 500 current price\n" +
		"User: 'Can you tell me who won the Super Bowl?' → who won the Super Bowl"
)

// DefaultSystemPrompt builds the conversational system prompt. The
// current date is baked in so the model knows what "today" means.
func DefaultSystemPrompt(now time.Time) string {
	return fmt.Sprintf(
		"You are a helpful voice assistant. Today is %s. "+
			"Keep responses concise — one to three sentences. "+
			"Speak naturally as in a conversation. "+
			"When searching the web, always include the current year in queries "+
			"to get fresh results.",
		now.Format("January 02, 2006"),
	)
}

// Callbacks carry best-effort progress notifications to the caller.
// Both are optional; panics inside them are logged and swallowed.
type Callbacks struct {
	// OnStatus receives a phase string: "thinking", "searching", or
	// "tool:<name>".
	OnStatus func(phase string)

	// OnToolCall fires before each tool dispatch. Interim speech such
	// as "let me look that up" is the caller's concern.
	OnToolCall func(name string, args json.RawMessage)
}

// Reply is the outcome of one chat exchange. Degraded marks a partial
// answer produced after a mid-loop provider failure.
type Reply struct {
	Text     string
	Degraded bool
}

// Config tunes one orchestrator instance.
type Config struct {
	MaxIterations    int    // tool-calling loop bound, default 5
	SystemPrompt     string // "" uses DefaultSystemPrompt
	MaxTokens        int    // 0 uses the provider default
	Model            string // metrics label only; "" means provider default
	HedgingPhrases   []string
	DisableSafetyNet bool
}

// Orchestrator executes utterances against one provider, one tool
// registry, and one session history.
type Orchestrator struct {
	provider llm.Provider
	registry *tools.Registry
	history  *history.Manager
	cfg      Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	// now is injectable for tests.
	now func() time.Time
}

func New(provider llm.Provider, registry *tools.Registry, hist *history.Manager, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if len(cfg.HedgingPhrases) == 0 {
		cfg.HedgingPhrases = defaultHedgingPhrases
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		provider: provider,
		registry: registry,
		history:  hist,
		cfg:      cfg,
		logger:   logger.With("component", "orchestrator"),
		metrics:  metrics,
		now:      time.Now,
	}
}

// Chat processes one utterance through the tool-calling loop and
// returns the final assistant text.
//
// A provider failure on the first iteration is the caller's problem; a
// failure after tools already ran returns whatever text is available
// with Degraded set.
func (o *Orchestrator) Chat(ctx context.Context, utterance string, cb Callbacks) (Reply, error) {
	o.history.Append(models.Message{Role: models.RoleUser, Content: utterance})

	system := o.cfg.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt(o.now())
	}
	schemas := o.registry.Schemas()

	o.notifyStatus(cb, "thinking")

	var reply string
	degraded := false
	searchPerformed := false

	for i := 0; i < o.cfg.MaxIterations; i++ {
		// The last iteration omits tools to force a text answer.
		last := i == o.cfg.MaxIterations-1
		var reqTools []llm.ToolSchema
		if !last {
			reqTools = schemas
		}

		res, err := o.generate(ctx, system, reqTools)
		if err != nil {
			if i == 0 {
				return Reply{}, err
			}
			o.logger.Warn("provider failed mid-loop, returning partial",
				"iteration", i+1, "error", err)
			if o.metrics != nil {
				o.metrics.RecordError("orchestrator", "provider_mid_loop")
			}
			degraded = true
			break
		}

		text := res.Text
		calls := res.ToolCalls

		// Recover tool calls some models emit as plain text, as long
		// as iterations remain to consume the results.
		if len(calls) == 0 && text != "" && !last {
			if tc, ok := llm.ParseTextToolCall(text, o.registry.Canonical); ok {
				o.logger.Info("recovered tool call from text output", "tool", tc.Name)
				calls = []models.ToolCall{tc}
				text = ""
			}
		}

		if len(calls) == 0 {
			reply = text
			break
		}

		o.history.Append(models.Message{
			Role:      models.RoleAssistant,
			Content:   text,
			ToolCalls: calls,
		})
		results := make([]models.ToolResult, 0, len(calls))
		for _, call := range calls {
			results = append(results, o.execute(ctx, cb, call))
			if call.Name == "web_search" {
				searchPerformed = true
			}
		}
		o.history.Append(models.Message{Role: models.RoleTool, ToolResults: results})
	}

	if reply == "" {
		reply = fallbackReply
	}

	// Hedging fires at most once per exchange: either the post-tool
	// retry (results are in context, model refused anyway) or the
	// safety-net search (model never tried).
	switch {
	case searchPerformed && isHedging(reply, o.cfg.HedgingPhrases):
		o.logger.Info("model hedged after search results, retrying with directive")
		if o.metrics != nil {
			o.metrics.RecordHedging("post_tool_retry")
		}
		if retried := o.postToolRetry(ctx, cb, system); retried != "" {
			reply = retried
		}
	case !searchPerformed && !o.cfg.DisableSafetyNet &&
		o.registry.Has("web_search") && isHedging(reply, o.cfg.HedgingPhrases):
		o.logger.Info("model hedged without searching, running safety net")
		if o.metrics != nil {
			o.metrics.RecordHedging("safety_net")
		}
		if recovered := o.safetyNetSearch(ctx, cb, utterance, system); recovered != "" {
			reply = recovered
		}
	}

	o.history.Append(models.Message{Role: models.RoleAssistant, Content: reply})
	return Reply{Text: reply, Degraded: degraded}, nil
}

// generate calls the provider with the current history and records
// request metrics. Assistant text gets a second think-strip pass as a
// guard; providers already strip on their side.
func (o *Orchestrator) generate(ctx context.Context, system string, reqTools []llm.ToolSchema) (*llm.Result, error) {
	req := &llm.Request{
		Model:     o.cfg.Model,
		System:    system,
		Messages:  o.history.Messages(o.flavor()),
		Tools:     reqTools,
		MaxTokens: o.cfg.MaxTokens,
	}

	start := time.Now()
	res, err := o.provider.Generate(ctx, req)
	if o.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		prompt, completion := 0, 0
		if res != nil {
			prompt, completion = res.PromptTokens, res.OutputTokens
		}
		o.metrics.RecordLLMRequest(o.provider.Name(), o.cfg.Model, status,
			time.Since(start).Seconds(), prompt, completion)
		if res != nil {
			o.metrics.RecordThinkTokens(o.provider.Name(), o.cfg.Model, res.ThinkTokens)
		}
	}
	if err != nil {
		return nil, err
	}
	stripped, _, _ := llm.StripThinking(res.Text)
	res.Text = stripped
	return res, nil
}

// execute dispatches one tool call. Failures become error tool results
// the model can react to; a hallucinated tool name never aborts the
// exchange.
func (o *Orchestrator) execute(ctx context.Context, cb Callbacks, call models.ToolCall) models.ToolResult {
	o.notifyToolCall(cb, call.Name, call.Input)
	o.notifyStatus(cb, "tool:"+call.Name)

	start := time.Now()
	out, err := o.registry.Dispatch(ctx, call)
	if err != nil {
		o.logger.Warn("tool dispatch failed", "tool", call.Name, "error", err)
		if o.metrics != nil {
			o.metrics.RecordToolExecution(call.Name, "error", time.Since(start).Seconds())
		}
		return models.ToolResult{
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Error executing '%s': %v", call.Name, err),
			IsError:    true,
		}
	}
	if o.metrics != nil {
		o.metrics.RecordToolExecution(call.Name, "success", time.Since(start).Seconds())
	}
	return models.ToolResult{ToolCallID: call.ID, Content: out}
}

// postToolRetry regenerates once with a directive to use the search
// results already in context. The directive never persists in history.
func (o *Orchestrator) postToolRetry(ctx context.Context, cb Callbacks, system string) string {
	o.notifyStatus(cb, "thinking")
	o.history.Append(models.Message{Role: models.RoleUser, Content: retryDirective})
	defer o.history.DropLast()

	res, err := o.generate(ctx, system, nil)
	if err != nil {
		o.logger.Warn("post-tool retry failed", "error", err)
		return ""
	}
	return res.Text
}

// safetyNetSearch runs one silent search and regenerates. It never
// makes the answer worse: any failure keeps the hedged reply.
func (o *Orchestrator) safetyNetSearch(ctx context.Context, cb Callbacks, utterance, system string) string {
	query := o.extractSearchQuery(ctx, utterance)

	o.notifyStatus(cb, "searching")
	input, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return ""
	}
	result, err := o.registry.Dispatch(ctx, models.ToolCall{
		ID:    "call_" + uuid.NewString(),
		Name:  "web_search",
		Input: input,
	})
	if err != nil || result == "" {
		o.logger.Warn("safety net search failed", "error", err)
		return ""
	}

	// Inject the results as an assistant turn for this regeneration
	// only; history keeps no trace of the safety net.
	msgs := append(o.history.Messages(o.flavor()), models.Message{
		Role: models.RoleAssistant,
		Content: "I searched the web and found:\n\n" + result +
			"\nI'll use these results to answer.",
	})

	o.notifyStatus(cb, "thinking")
	res, err := o.provider.Generate(ctx, &llm.Request{
		Model:     o.cfg.Model,
		System:    system,
		Messages:  msgs,
		MaxTokens: o.cfg.MaxTokens,
	})
	if err != nil {
		o.logger.Warn("safety net regeneration failed", "error", err)
		return ""
	}
	stripped, _, _ := llm.StripThinking(res.Text)
	return stripped
}

// extractSearchQuery asks the model for a clean search query. The raw
// utterance is the fallback when extraction fails or is too short to
// be a real query.
func (o *Orchestrator) extractSearchQuery(ctx context.Context, utterance string) string {
	res, err := o.provider.Generate(ctx, &llm.Request{
		Model:  o.cfg.Model,
		System: searchClassifierPrompt,
		Messages: []models.Message{
			{Role: models.RoleUser, Content: utterance},
		},
		MaxTokens: o.cfg.MaxTokens,
	})
	if err != nil {
		o.logger.Warn("query extraction failed", "error", err)
		return utterance
	}
	query := strings.TrimSpace(res.Text)
	if len(query) > 5 {
		o.logger.Info("extracted search query", "query", query)
		return query
	}
	return utterance
}

func (o *Orchestrator) flavor() history.Flavor {
	if o.provider.Name() == "anthropic" {
		return history.FlavorBlocks
	}
	return history.FlavorSplit
}

func (o *Orchestrator) notifyStatus(cb Callbacks, phase string) {
	if cb.OnStatus == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("status callback panicked", "phase", phase, "panic", r)
		}
	}()
	cb.OnStatus(phase)
}

func (o *Orchestrator) notifyToolCall(cb Callbacks, name string, args json.RawMessage) {
	if cb.OnToolCall == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("tool-call callback panicked", "tool", name, "panic", r)
		}
	}()
	cb.OnToolCall(name, args)
}
