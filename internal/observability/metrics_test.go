package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLLMRequest(t *testing.T) {
	// Test with isolated registry
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_llm_requests_total",
			Help: "Test LLM request counter",
		},
		[]string{"provider", "model", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("anthropic", "claude-haiku-4-5", "success").Inc()
	counter.WithLabelValues("ollama", "qwen2.5:14b", "success").Inc()
	counter.WithLabelValues("anthropic", "claude-haiku-4-5", "error").Inc()

	if count := testutil.CollectAndCount(counter); count != 3 {
		t.Errorf("Expected 3 label combinations, got %d", count)
	}
}

func TestRecordToolExecution(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_tool_executions_total",
			Help: "Test tool execution counter",
		},
		[]string{"tool_name", "status"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("web_search", "success").Inc()
	counter.WithLabelValues("web_search", "success").Inc()
	counter.WithLabelValues("get_current_datetime", "error").Inc()

	expected := `
		# HELP test_tool_executions_total Test tool execution counter
		# TYPE test_tool_executions_total counter
		test_tool_executions_total{status="error",tool_name="get_current_datetime"} 1
		test_tool_executions_total{status="success",tool_name="web_search"} 2
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestRecordWorkflowRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_workflow_runs_total",
			Help: "Test workflow run counter",
		},
		[]string{"workflow_id", "reason"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("deep_research", "complete").Inc()
	counter.WithLabelValues("deep_research", "cancelled").Inc()
	counter.WithLabelValues("fact_check", "error").Inc()

	if count := testutil.CollectAndCount(counter); count != 3 {
		t.Errorf("Expected 3 label combinations, got %d", count)
	}
}

func TestRecordHedging(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_hedging_activations_total",
			Help: "Test hedging counter",
		},
		[]string{"kind"},
	)
	registry.MustRegister(counter)

	counter.WithLabelValues("safety_net").Inc()
	counter.WithLabelValues("post_tool_retry").Inc()
	counter.WithLabelValues("safety_net").Inc()

	expected := `
		# HELP test_hedging_activations_total Test hedging counter
		# TYPE test_hedging_activations_total counter
		test_hedging_activations_total{kind="post_tool_retry"} 1
		test_hedging_activations_total{kind="safety_net"} 2
	`
	if err := testutil.CollectAndCompare(counter, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestSessionGauge(t *testing.T) {
	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_active_sessions",
		Help: "Test active sessions",
	})
	registry.MustRegister(gauge)

	gauge.Inc()
	gauge.Inc()
	gauge.Dec()

	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("active sessions = %v, want 1", got)
	}
}

func TestConcurrentMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "test_concurrent_total",
			Help: "Test concurrent counter",
		},
		[]string{"label"},
	)
	registry.MustRegister(counter)

	done := make(chan bool)
	iterations := 100

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("a").Inc()
		}
		done <- true
	}()

	go func() {
		for i := 0; i < iterations; i++ {
			counter.WithLabelValues("b").Inc()
		}
		done <- true
	}()

	<-done
	<-done

	if got := testutil.ToFloat64(counter.WithLabelValues("a")); got != float64(iterations) {
		t.Errorf("counter a = %v, want %d", got, iterations)
	}
}
