package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/pkg/models"
)

type scriptedProvider struct {
	script   []func(req *llm.Request) (*llm.Result, error)
	requests []*llm.Request
}

func (p *scriptedProvider) Name() string        { return "fake" }
func (p *scriptedProvider) SupportsTools() bool { return true }

func (p *scriptedProvider) Generate(_ context.Context, req *llm.Request) (*llm.Result, error) {
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
		return &llm.Result{Text: s, OutputTokens: 10, PromptTokens: 20, RawChars: len(s)}, nil
	}
}

type fakeSearch struct {
	queries []string
	fail    map[string]error
}

func (s *fakeSearch) Name() string        { return "web_search" }
func (s *fakeSearch) Description() string { return "search the web" }

func (s *fakeSearch) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)
}

func (s *fakeSearch) Execute(_ context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", err
	}
	s.queries = append(s.queries, params.Query)
	if err, ok := s.fail[params.Query]; ok {
		return "", err
	}
	return fmt.Sprintf("Web search results for %q:\n1. Result (https://example.com)\n   data for %s\n", params.Query, params.Query), nil
}

type eventLog struct {
	events []models.WorkflowEvent
}

func (l *eventLog) observer(ev models.WorkflowEvent) {
	l.events = append(l.events, ev)
}

func (l *eventLog) ofType(t models.WorkflowEventType) []models.WorkflowEvent {
	var out []models.WorkflowEvent
	for _, ev := range l.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine(t *testing.T, p llm.Provider, search *fakeSearch) (*Engine, *[]time.Duration) {
	t.Helper()
	reg := tools.NewRegistry()
	if err := reg.Register(search); err != nil {
		t.Fatalf("Register: %v", err)
	}
	en := NewEngine(p, reg, Config{Model: "test-model"}, nil, nil)
	sleeps := &[]time.Duration{}
	en.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return ctx.Err()
	}
	return en, sleeps
}

func TestRunResearchCompare(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text(`"top 3 S&P 500 companies by market cap list 2026"`),
		text(`["Apple AAPL market cap 2026", "NVIDIA NVDA market cap 2026", "Microsoft MSFT market cap 2026"]`),
		text("Apple leads, then NVIDIA, then Microsoft."),
	}}
	search := &fakeSearch{}
	en, sleeps := newTestEngine(t, p, search)
	log := &eventLog{}

	final, err := en.Run(context.Background(), "research_compare",
		"compare the top 3 S&P 500 companies by market cap", log.observer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(final, "Apple leads") {
		t.Errorf("final = %q", final)
	}

	// One ranking search plus three per-entity searches.
	if len(search.queries) != 4 {
		t.Fatalf("search queries = %v", search.queries)
	}
	if search.queries[0] != "top 3 S&P 500 companies by market cap list 2026" {
		t.Errorf("initial query kept its quotes: %q", search.queries[0])
	}
	if search.queries[1] != "Apple AAPL market cap 2026" {
		t.Errorf("first entity query = %q", search.queries[1])
	}

	// Inter-iteration delays between loop children only.
	if len(*sleeps) != 2 {
		t.Errorf("sleeps = %v, want 2", *sleeps)
	}

	// Event stream shape.
	if log.events[0].Type != models.EventWorkflowStart {
		t.Errorf("first event = %s", log.events[0].Type)
	}
	if st := log.events[0].Start; st == nil || len(st.States) != 4 || st.WorkflowID != "research_compare" {
		t.Errorf("start payload = %+v", log.events[0].Start)
	}
	last := log.events[len(log.events)-1]
	if last.Type != models.EventWorkflowExit || last.Exit.Reason != models.ExitComplete {
		t.Errorf("last event = %+v", last)
	}
	for i := 1; i < len(log.events); i++ {
		if log.events[i].Sequence <= log.events[i-1].Sequence {
			t.Fatalf("sequence not monotonic at %d", i)
		}
	}

	// Loop updates: -1 first, then one per child.
	updates := log.ofType(models.EventWorkflowLoopUpdate)
	if len(updates) != 4 {
		t.Fatalf("loop updates = %d", len(updates))
	}
	if updates[0].LoopUpdate.ActiveIndex != -1 || len(updates[0].LoopUpdate.Children) != 3 {
		t.Errorf("initial loop update = %+v", updates[0].LoopUpdate)
	}
	for i, ev := range updates[1:] {
		if ev.LoopUpdate.ActiveIndex != i {
			t.Errorf("loop update %d active_index = %d", i+1, ev.LoopUpdate.ActiveIndex)
		}
	}

	// One debug event per LLM step.
	debugs := log.ofType(models.EventWorkflowDebug)
	if len(debugs) != 3 {
		t.Fatalf("debug events = %d", len(debugs))
	}
	if debugs[0].Debug.Step != "initial_lookup" || debugs[0].Debug.Model != "test-model" {
		t.Errorf("debug payload = %+v", debugs[0].Debug)
	}

	// Every step went active then visited.
	visited := map[string]bool{}
	for _, ev := range log.ofType(models.EventWorkflowState) {
		if ev.State.Status == models.StateVisited {
			visited[ev.State.StateID] = true
		}
	}
	for _, id := range []string{"initial_lookup", "decompose", "search_each", "synthesize"} {
		if !visited[id] {
			t.Errorf("step %s never visited", id)
		}
	}

	// Workflow steps are one-shot: no request carries history, all
	// disable thinking.
	for i, req := range p.requests {
		if len(req.Messages) != 1 {
			t.Errorf("request %d has %d messages", i, len(req.Messages))
		}
		if !req.DisableThinking {
			t.Errorf("request %d did not disable thinking", i)
		}
	}
}

func TestRunLoopChildFailureContinues(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text("ranking query 2026"),
		text(`["good query 2026", "bad query 2026"]`),
		text("synthesized despite one failure"),
	}}
	search := &fakeSearch{fail: map[string]error{"bad query 2026": errors.New("rate limited")}}
	en, _ := newTestEngine(t, p, search)

	final, err := en.Run(context.Background(), "research_compare",
		"compare the top 2 cloud providers by revenue", func(models.WorkflowEvent) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != "synthesized despite one failure" {
		t.Errorf("final = %q", final)
	}

	// The failed child left a sentinel in the synthesize prompt.
	synthReq := p.requests[len(p.requests)-1]
	if !strings.Contains(synthReq.Messages[0].Content, "Search failed:") {
		t.Error("error sentinel missing from synthesis prompt")
	}
	if !strings.Contains(synthReq.Messages[0].Content, "[Query: good query 2026]") {
		t.Error("successful child missing from synthesis prompt")
	}
}

func TestRunCancelledMidLoop(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text("ranking query 2026"),
		text(`["q1 2026", "q2 2026", "q3 2026"]`),
		// Synthesize must never run.
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)

	ctx, cancel := context.WithCancel(context.Background())
	en.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	log := &eventLog{}

	_, err := en.Run(ctx, "research_compare",
		"compare the top 3 card networks by volume", log.observer)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	last := log.events[len(log.events)-1]
	if last.Type != models.EventWorkflowExit || last.Exit.Reason != models.ExitCancelled {
		t.Errorf("last event = %+v", last)
	}
	// Only the first loop child searched before cancellation.
	if len(search.queries) != 2 { // initial lookup + first child
		t.Errorf("search queries = %v", search.queries)
	}
	if len(p.requests) != 2 {
		t.Error("synthesize ran after cancellation")
	}
	for _, ev := range log.ofType(models.EventWorkflowState) {
		if ev.State.StateID == "synthesize" {
			t.Error("synthesize emitted state events after cancellation")
		}
	}
}

func TestRunEmptyLoop(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text("ranking query 2026"),
		text("[]"),
		text("nothing to compare"),
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)
	log := &eventLog{}

	final, err := en.Run(context.Background(), "research_compare",
		"compare both of the biggest search engines today", log.observer)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != "nothing to compare" {
		t.Errorf("final = %q", final)
	}

	updates := log.ofType(models.EventWorkflowLoopUpdate)
	if len(updates) != 1 {
		t.Fatalf("loop updates = %d", len(updates))
	}
	if updates[0].LoopUpdate.ActiveIndex != -1 || len(updates[0].LoopUpdate.Children) != 0 {
		t.Errorf("empty loop update = %+v", updates[0].LoopUpdate)
	}
	if updates[0].LoopUpdate.Children == nil {
		t.Error("children must serialize as [], not null")
	}
}

func TestRunFirstStepFailure(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		func(*llm.Request) (*llm.Result, error) {
			return nil, llm.NewProviderError("fake", "m", errors.New("connection refused"))
		},
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)
	log := &eventLog{}

	_, err := en.Run(context.Background(), "deep_research",
		"tell me about the history of containerized shipping", log.observer)
	if err == nil {
		t.Fatal("expected error")
	}

	last := log.events[len(log.events)-1]
	if last.Type != models.EventWorkflowExit || last.Exit.Reason != models.ExitError {
		t.Errorf("last event = %+v", last)
	}
	if last.Exit.Error == "" {
		t.Error("exit event should carry the error text")
	}
	for _, ev := range log.ofType(models.EventWorkflowState) {
		if ev.State.Status == models.StateVisited {
			t.Errorf("step %s visited despite failure", ev.State.StateID)
		}
	}
}

func TestRunFactCheck(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text(`{"claim": "the great wall is visible from space", "support_query": "great wall visible space 2026", "counter_query": "great wall space myth 2026"}`),
		text("That's mostly false: astronauts report it is not visible unaided."),
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)

	final, err := en.Run(context.Background(), "fact_check",
		"is it true the great wall is visible from space", func(models.WorkflowEvent) {})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(final, "mostly false") {
		t.Errorf("final = %q", final)
	}
	if len(search.queries) != 2 {
		t.Fatalf("search queries = %v", search.queries)
	}
	if search.queries[0] != "great wall visible space 2026" || search.queries[1] != "great wall space myth 2026" {
		t.Errorf("queries = %v", search.queries)
	}

	// The verdict prompt carries claim and both evidence sets.
	verdictPrompt := p.requests[1].Messages[0].Content
	for _, want := range []string{"the great wall is visible from space", "data for great wall visible space 2026", "data for great wall space myth 2026"} {
		if !strings.Contains(verdictPrompt, want) {
			t.Errorf("verdict prompt missing %q", want)
		}
	}
}

func TestRunFactCheckClaimFallback(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text("The claim seems to be about goldfish memory."),
		text("unverified"),
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)

	utterance := "is it true goldfish have three second memories"
	if _, err := en.Run(context.Background(), "fact_check", utterance, func(models.WorkflowEvent) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Non-JSON extraction: both searches fall back to the utterance.
	if len(search.queries) != 2 || search.queries[0] != utterance || search.queries[1] != utterance {
		t.Errorf("queries = %v", search.queries)
	}
}

func TestRunObserverPanicDoesNotAbort(t *testing.T) {
	p := &scriptedProvider{script: []func(*llm.Request) (*llm.Result, error){
		text("query 2026"),
		text(`["a 2026"]`),
		text("done"),
	}}
	search := &fakeSearch{}
	en, _ := newTestEngine(t, p, search)

	final, err := en.Run(context.Background(), "research_compare",
		"compare the top 1 whatever this utterance is long", func(models.WorkflowEvent) {
			panic("renderer bug")
		})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != "done" {
		t.Errorf("final = %q", final)
	}
}

func TestRunUnknownWorkflow(t *testing.T) {
	search := &fakeSearch{}
	en, _ := newTestEngine(t, &scriptedProvider{}, search)
	if _, err := en.Run(context.Background(), "nope", "q", nil); err == nil {
		t.Fatal("expected error")
	}
}
