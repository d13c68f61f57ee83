package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/pkg/models"
)

type scriptedProvider struct {
	mu       sync.Mutex
	name     string
	script   []func(*llm.Request) (*llm.Result, error)
	requests []*llm.Request
}

func (p *scriptedProvider) Name() string        { return p.name }
func (p *scriptedProvider) SupportsTools() bool { return true }

func (p *scriptedProvider) Generate(_ context.Context, req *llm.Request) (*llm.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.script) == 0 {
		return nil, errors.New("script exhausted")
	}
	step := p.script[0]
	p.script = p.script[1:]
	return step(req)
}

func text(s string) func(*llm.Request) (*llm.Result, error) {
	return func(*llm.Request) (*llm.Result, error) {
		return &llm.Result{Text: s, RawChars: len(s), PromptTokens: 10, OutputTokens: 5}, nil
	}
}

func fail(err error) func(*llm.Request) (*llm.Result, error) {
	return func(*llm.Request) (*llm.Result, error) { return nil, err }
}

// fakeSearch is a web_search stand-in. If block is non-nil, Execute
// signals on it and then waits for context cancellation.
type fakeSearch struct {
	mu      sync.Mutex
	queries []string
	block   chan struct{}
}

func (f *fakeSearch) Name() string        { return "web_search" }
func (f *fakeSearch) Description() string { return "Search the web" }

func (f *fakeSearch) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)
}

func (f *fakeSearch) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.queries = append(f.queries, in.Query)
	f.mu.Unlock()
	if f.block != nil {
		f.block <- struct{}{}
		<-ctx.Done()
		return "", ctx.Err()
	}
	return fmt.Sprintf("1. Result (https://example.com)\n   data for %s\n", in.Query), nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Model: "test-model", MaxTokens: 300},
		Orchestrator: config.OrchestratorConfig{
			MaxToolIterations: 5,
		},
		Workflow: config.WorkflowConfig{
			LoopDelaySecs: 0.001,
			SnippetCap:    150,
			AggregateCap:  2500,
		},
		History: config.HistoryConfig{MaxGroups: 10},
	}
}

func newTestDispatcher(t *testing.T, p llm.Provider, search *fakeSearch) *Dispatcher {
	t.Helper()
	registry := tools.NewRegistry()
	if search != nil {
		if err := registry.Register(search); err != nil {
			t.Fatalf("register search: %v", err)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := New(testConfig(), p, registry, logger, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDispatchEmptyUtteranceRefusal(t *testing.T) {
	p := &scriptedProvider{name: "ollama"}
	d := newTestDispatcher(t, p, nil)

	got, err := d.Dispatch(context.Background(), "s1", "   ", Hooks{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != refusalEmpty {
		t.Errorf("reply = %q", got)
	}
	if len(p.requests) != 0 {
		t.Errorf("provider called %d times for empty utterance", len(p.requests))
	}
}

func TestDispatchOversizedUtteranceRefusal(t *testing.T) {
	p := &scriptedProvider{name: "ollama"}
	d := newTestDispatcher(t, p, nil)

	got, err := d.Dispatch(context.Background(), "s1", strings.Repeat("a", MaxUtteranceLen+1), Hooks{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != refusalTooLong {
		t.Errorf("reply = %q", got)
	}
	if len(p.requests) != 0 {
		t.Errorf("provider called %d times for oversized utterance", len(p.requests))
	}
}

func TestDispatchChatPathKeepsHistory(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			text("Hi there."),
			text("Still here."),
		},
	}
	d := newTestDispatcher(t, p, &fakeSearch{})

	got, err := d.Dispatch(context.Background(), "s1", "hello", Hooks{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "Hi there." {
		t.Errorf("reply = %q", got)
	}

	if _, err := d.Dispatch(context.Background(), "s1", "are you there", Hooks{}); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	second := p.requests[len(p.requests)-1]
	if len(second.Messages) != 3 {
		t.Fatalf("second request has %d messages, want 3", len(second.Messages))
	}
	if second.Messages[1].Content != "Hi there." {
		t.Errorf("history assistant turn = %q", second.Messages[1].Content)
	}
}

func TestDispatchRoutesToWorkflow(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			text(`"quantum computing milestones 2026"`),
			text(`["quantum error correction progress", "quantum hardware vendors"]`),
			text("Quantum computing made real strides this year."),
			text("Follow-up answer."),
		},
	}
	search := &fakeSearch{}
	d := newTestDispatcher(t, p, search)

	var events []models.WorkflowEvent
	hooks := Hooks{Observer: func(ev models.WorkflowEvent) { events = append(events, ev) }}

	got, err := d.Dispatch(context.Background(), "s1", "research the history of quantum computing", hooks)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != "Quantum computing made real strides this year." {
		t.Errorf("reply = %q", got)
	}
	if len(search.queries) != 3 {
		t.Errorf("searches = %v", search.queries)
	}
	if len(events) == 0 {
		t.Fatal("no workflow events observed")
	}
	if last := events[len(events)-1]; last.Type != models.EventWorkflowExit {
		t.Errorf("last event type = %q", last.Type)
	}

	// Only the final user/assistant pair survives into history.
	if _, err := d.Dispatch(context.Background(), "s1", "thanks, anything else", Hooks{}); err != nil {
		t.Fatalf("follow-up Dispatch: %v", err)
	}
	followUp := p.requests[len(p.requests)-1]
	if len(followUp.Messages) != 3 {
		t.Fatalf("follow-up request has %d messages, want 3", len(followUp.Messages))
	}
	if followUp.Messages[0].Content != "research the history of quantum computing" {
		t.Errorf("history user turn = %q", followUp.Messages[0].Content)
	}
	if followUp.Messages[1].Content != "Quantum computing made real strides this year." {
		t.Errorf("history assistant turn = %q", followUp.Messages[1].Content)
	}
}

func TestDispatchWorkflowFailureSpeaks(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			fail(llm.NewProviderError("ollama", "test-model", errors.New("connection refused"))),
			text("Next answer."),
		},
	}
	d := newTestDispatcher(t, p, &fakeSearch{})

	got, err := d.Dispatch(context.Background(), "s1", "research the history of quantum computing", Hooks{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.HasPrefix(got, "I ran into an issue during research:") {
		t.Errorf("reply = %q", got)
	}

	// The failure reply is still part of the conversation.
	if _, err := d.Dispatch(context.Background(), "s1", "ok", Hooks{}); err != nil {
		t.Fatalf("follow-up Dispatch: %v", err)
	}
	followUp := p.requests[len(p.requests)-1]
	if len(followUp.Messages) != 3 {
		t.Errorf("follow-up request has %d messages, want 3", len(followUp.Messages))
	}
}

func TestDispatchCancelledWorkflowLeavesNoHistory(t *testing.T) {
	search := &fakeSearch{block: make(chan struct{})}
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			text(`"quantum computing milestones 2026"`),
			text("Fresh answer."),
		},
	}
	d := newTestDispatcher(t, p, search)

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), "s1", "research the history of quantum computing", Hooks{})
		done <- err
	}()

	<-search.block
	d.Cancel("s1")

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Dispatch error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch did not return after Cancel")
	}

	if _, err := d.Dispatch(context.Background(), "s1", "hello again", Hooks{}); err != nil {
		t.Fatalf("follow-up Dispatch: %v", err)
	}
	followUp := p.requests[len(p.requests)-1]
	if len(followUp.Messages) != 1 {
		t.Errorf("follow-up request has %d messages, want 1 (cancelled run must leave no history)", len(followUp.Messages))
	}
}

func TestDispatchProviderErrorBecomesFallbackText(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			fail(llm.NewProviderError("ollama", "test-model", errors.New("service unavailable"))),
		},
	}
	d := newTestDispatcher(t, p, &fakeSearch{})

	got, err := d.Dispatch(context.Background(), "s1", "hello", Hooks{})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != providerFallback {
		t.Errorf("reply = %q", got)
	}
}

func TestResetClearsHistory(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			text("First."),
			text("Second."),
		},
	}
	d := newTestDispatcher(t, p, &fakeSearch{})

	if _, err := d.Dispatch(context.Background(), "s1", "hello", Hooks{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	d.Reset("s1")

	if _, err := d.Dispatch(context.Background(), "s1", "hello again", Hooks{}); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	second := p.requests[len(p.requests)-1]
	if len(second.Messages) != 1 {
		t.Errorf("request after Reset has %d messages, want 1", len(second.Messages))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	p := &scriptedProvider{
		name: "ollama",
		script: []func(*llm.Request) (*llm.Result, error){
			text("For alpha."),
			text("For beta."),
		},
	}
	d := newTestDispatcher(t, p, &fakeSearch{})

	if _, err := d.Dispatch(context.Background(), "alpha", "hi from alpha", Hooks{}); err != nil {
		t.Fatalf("Dispatch alpha: %v", err)
	}
	if _, err := d.Dispatch(context.Background(), "beta", "hi from beta", Hooks{}); err != nil {
		t.Fatalf("Dispatch beta: %v", err)
	}
	betaReq := p.requests[len(p.requests)-1]
	if len(betaReq.Messages) != 1 {
		t.Errorf("beta request has %d messages, want 1", len(betaReq.Messages))
	}
}
