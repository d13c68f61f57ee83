package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - LLM request performance, token consumption, and think-block volume
//   - Tool execution patterns and latencies
//   - Workflow runs and per-step outcomes
//   - Hedging safety-net activations
//   - Error rates categorized by type and component
//   - Active session counts for capacity planning
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordLLMRequest("anthropic", "claude-haiku", "success", time.Since(start).Seconds(), 100, 500)
type Metrics struct {
	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider (anthropic|openai|ollama), model
	// Buckets: 0.1s, 0.5s, 1s, 2s, 5s, 10s, 30s, 60s, 120s
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider and model.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion|thinking)
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s
	ToolExecutionDuration *prometheus.HistogramVec

	// WorkflowRunCounter counts workflow runs.
	// Labels: workflow_id, reason (complete|cancelled|error)
	WorkflowRunCounter *prometheus.CounterVec

	// WorkflowStepCounter counts workflow step executions.
	// Labels: workflow_id, step_id, status (success|error)
	WorkflowStepCounter *prometheus.CounterVec

	// HedgingCounter counts hedging-detection activations.
	// Labels: kind (safety_net|post_tool_retry)
	HedgingCounter *prometheus.CounterVec

	// ErrorCounter tracks errors by type and component.
	// Labels: component (orchestrator|workflow|tool|llm|session), error_type
	ErrorCounter *prometheus.CounterVec

	// ActiveSessions is a gauge tracking current active sessions.
	ActiveSessions prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup.
//
// All metrics are automatically registered with Prometheus's default registry
// and will be available at the /metrics endpoint when using prometheus HTTP handler.
func NewMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		WorkflowRunCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_workflow_runs_total",
				Help: "Total number of workflow runs by workflow and exit reason",
			},
			[]string{"workflow_id", "reason"},
		),

		WorkflowStepCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_workflow_steps_total",
				Help: "Total number of workflow step executions by workflow, step, and status",
			},
			[]string{"workflow_id", "step_id", "status"},
		),

		HedgingCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_hedging_activations_total",
				Help: "Total number of hedging safety-net activations by kind",
			},
			[]string{"kind"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "parley_active_sessions",
				Help: "Current number of active assistant sessions",
			},
		),
	}
}

// RecordLLMRequest records metrics for an LLM API request.
//
// Example:
//
//	start := time.Now()
//	// ... make LLM request ...
//	metrics.RecordLLMRequest("anthropic", "claude-haiku", "success", time.Since(start).Seconds(), 100, 500)
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordThinkTokens records the estimated tokens spent inside stripped
// think blocks.
func (m *Metrics) RecordThinkTokens(provider, model string, thinkTokens int) {
	if thinkTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "thinking").Add(float64(thinkTokens))
	}
}

// RecordToolExecution records metrics for a tool execution.
//
// Example:
//
//	start := time.Now()
//	// ... execute tool ...
//	metrics.RecordToolExecution("web_search", "success", time.Since(start).Seconds())
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordWorkflowRun records one completed workflow run.
//
// Example:
//
//	metrics.RecordWorkflowRun("deep_research", "complete")
func (m *Metrics) RecordWorkflowRun(workflowID, reason string) {
	m.WorkflowRunCounter.WithLabelValues(workflowID, reason).Inc()
}

// RecordWorkflowStep records one workflow step execution.
func (m *Metrics) RecordWorkflowStep(workflowID, stepID, status string) {
	m.WorkflowStepCounter.WithLabelValues(workflowID, stepID, status).Inc()
}

// RecordHedging counts a hedging-detection activation.
//
// Example:
//
//	metrics.RecordHedging("safety_net")
func (m *Metrics) RecordHedging(kind string) {
	m.HedgingCounter.WithLabelValues(kind).Inc()
}

// RecordError increments the error counter for a given component and error type.
//
// Example:
//
//	metrics.RecordError("orchestrator", "provider_unavailable")
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// SessionStarted increments the active sessions gauge.
func (m *Metrics) SessionStarted() {
	m.ActiveSessions.Inc()
}

// SessionEnded decrements the active sessions gauge.
func (m *Metrics) SessionEnded() {
	m.ActiveSessions.Dec()
}
