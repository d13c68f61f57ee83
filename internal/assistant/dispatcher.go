// Package assistant is the entry surface of the core: it owns
// per-session state, routes each utterance to either the workflow
// engine or the conversational orchestrator, and converts internal
// failures into speakable text.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/observability"
	"github.com/parleyhq/parley/internal/orchestrator"
	"github.com/parleyhq/parley/internal/router"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/internal/workflow"
	"github.com/parleyhq/parley/pkg/models"
)

// MaxUtteranceLen bounds what a single utterance may carry into the
// core. Anything longer gets a refusal, not an error.
const MaxUtteranceLen = 4096

// Canned user-visible strings. Routing and recovery failures speak;
// they never surface internal error kinds.
const (
	refusalEmpty   = "I didn't catch that. Could you say it again?"
	refusalTooLong = "That request is too long for me to handle in one go. Could you shorten it?"

	providerFallback = "I'm having trouble reaching the language model right now. Please try again in a moment."

	workflowEmptyReply = "I completed the research but couldn't form a response."
)

// Hooks carry the caller's observation points for one dispatch.
type Hooks struct {
	// Observer receives workflow events when the utterance routes to
	// a workflow.
	Observer workflow.Observer

	// OnStatus and OnToolCall feed the conversational path.
	OnStatus   func(phase string)
	OnToolCall func(name string, args json.RawMessage)
}

// session is one user's conversation: its history, its orchestrator,
// and the cancel handle of the in-flight dispatch, if any.
type session struct {
	id      string
	history *history.Manager
	orch    *orchestrator.Orchestrator

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (s *session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

func (s *session) interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Dispatcher accepts utterances and produces final text. It is safe
// for concurrent use across sessions; within one session, dispatches
// are expected to be sequential.
type Dispatcher struct {
	cfg      *config.Config
	provider llm.Provider
	registry *tools.Registry
	engine   *workflow.Engine
	router   *router.Router
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

func New(cfg *config.Config, provider llm.Provider, registry *tools.Registry, logger *slog.Logger, metrics *observability.Metrics) (*Dispatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rules := make([]router.Rule, 0, len(workflow.Definitions()))
	for _, def := range workflow.Definitions() {
		rules = append(rules, router.Rule{
			WorkflowID:    def.ID,
			Patterns:      def.TriggerPatterns,
			MinQueryWords: def.MinQueryWords,
		})
	}
	rt, err := router.New(rules)
	if err != nil {
		return nil, fmt.Errorf("build workflow router: %w", err)
	}

	engine := workflow.NewEngine(provider, registry, workflow.Config{
		Model:        cfg.LLM.Model,
		MaxTokens:    cfg.LLM.MaxTokens,
		LoopDelay:    time.Duration(cfg.Workflow.LoopDelaySecs * float64(time.Second)),
		SnippetCap:   cfg.Workflow.SnippetCap,
		AggregateCap: cfg.Workflow.AggregateCap,
	}, logger, metrics)

	return &Dispatcher{
		cfg:      cfg,
		provider: provider,
		registry: registry,
		engine:   engine,
		router:   rt,
		logger:   logger.With("component", "assistant"),
		metrics:  metrics,
		sessions: make(map[string]*session),
	}, nil
}

// Dispatch processes one utterance for a session and returns the final
// assistant text. Provider failures come back as speakable fallback
// text; only cancellation surfaces as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, utterance string, hooks Hooks) (string, error) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return refusalEmpty, nil
	}
	if len(utterance) > MaxUtteranceLen {
		d.logger.Info("refusing oversized utterance", "session", sessionID, "len", len(utterance))
		return refusalTooLong, nil
	}

	s := d.session(sessionID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.setCancel(cancel)
	defer s.setCancel(nil)

	if workflowID, ok := d.router.Route(utterance); ok {
		d.logger.Info("routed to workflow", "session", sessionID, "workflow", workflowID)
		return d.runWorkflow(runCtx, s, workflowID, utterance, hooks.Observer)
	}

	reply, err := s.orch.Chat(runCtx, utterance, orchestrator.Callbacks{
		OnStatus:   hooks.OnStatus,
		OnToolCall: hooks.OnToolCall,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || runCtx.Err() != nil {
			return "", err
		}
		d.logger.Error("chat failed", "session", sessionID, "error", err)
		if d.metrics != nil {
			d.metrics.RecordError("session", "provider")
		}
		return providerFallback, nil
	}
	if reply.Degraded {
		d.logger.Warn("returning degraded reply", "session", sessionID)
	}
	return reply.Text, nil
}

// runWorkflow executes a routed workflow. Only the final user and
// assistant turns reach history; intermediate workflow reasoning never
// pollutes the conversation. A cancelled run leaves no trace at all.
func (d *Dispatcher) runWorkflow(ctx context.Context, s *session, workflowID, utterance string, observer workflow.Observer) (string, error) {
	final, err := d.engine.Run(ctx, workflowID, utterance, observer)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return "", err
		}
		final = fmt.Sprintf("I ran into an issue during research: %v", err)
	} else if final == "" {
		final = workflowEmptyReply
	}

	s.history.Append(models.Message{Role: models.RoleUser, Content: utterance})
	s.history.Append(models.Message{Role: models.RoleAssistant, Content: final})
	return final, nil
}

// Cancel interrupts a session's in-flight dispatch, if any. The
// dispatch observes it at its next suspension point.
func (d *Dispatcher) Cancel(sessionID string) {
	d.mu.Lock()
	s := d.sessions[sessionID]
	d.mu.Unlock()
	if s != nil {
		s.interrupt()
	}
}

// Reset clears a session's conversation history.
func (d *Dispatcher) Reset(sessionID string) {
	d.mu.Lock()
	s := d.sessions[sessionID]
	d.mu.Unlock()
	if s != nil {
		s.history.Clear()
	}
}

// Remove drops a session entirely.
func (d *Dispatcher) Remove(sessionID string) {
	d.mu.Lock()
	_, ok := d.sessions[sessionID]
	delete(d.sessions, sessionID)
	d.mu.Unlock()
	if ok && d.metrics != nil {
		d.metrics.SessionEnded()
	}
}

// session returns the session, creating it on first use.
func (d *Dispatcher) session(id string) *session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.sessions[id]; ok {
		return s
	}

	hist := history.NewManager(d.cfg.Orchestrator.SystemPrompt, d.cfg.History.MaxGroups)
	orch := orchestrator.New(d.provider, d.registry, hist, orchestrator.Config{
		MaxIterations: d.cfg.Orchestrator.MaxToolIterations,
		SystemPrompt:  d.cfg.Orchestrator.SystemPrompt,
		MaxTokens:     d.cfg.LLM.MaxTokens,
		Model:         d.cfg.LLM.Model,
	}, d.logger, d.metrics)

	s := &session{id: id, history: hist, orch: orch}
	d.sessions[id] = s
	if d.metrics != nil {
		d.metrics.SessionStarted()
	}
	d.logger.Info("session created", "session", id)
	return s
}
