package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want Reason
	}{
		{errors.New("429 too many requests"), ReasonRateLimited},
		{errors.New("context deadline exceeded"), ReasonTimeout},
		{errors.New("dial tcp: connection refused"), ReasonUnavailable},
		{errors.New("invalid api key provided"), ReasonAuth},
		{errors.New("prompt is too long: 210000 tokens"), ReasonContextOverflow},
		{errors.New("invalid character '<' looking for beginning of value"), ReasonInvalidResponse},
		{errors.New("something odd"), ReasonUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%q) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestProviderErrorStatusReclassifies(t *testing.T) {
	err := NewProviderError("ollama", "qwen2.5:14b", errors.New("boom")).WithStatus(429)
	if err.Reason != ReasonRateLimited {
		t.Errorf("Reason = %v, want %v", err.Reason, ReasonRateLimited)
	}
	if !IsRetryable(err) {
		t.Error("429 should be retryable")
	}

	err = NewProviderError("ollama", "qwen2.5:14b", errors.New("boom")).WithStatus(401)
	if err.Reason != ReasonAuth {
		t.Errorf("Reason = %v, want %v", err.Reason, ReasonAuth)
	}
	if IsRetryable(err) {
		t.Error("auth failure should not be retryable")
	}
}

func TestGetProviderErrorUnwrapsChain(t *testing.T) {
	inner := NewProviderError("anthropic", "claude-haiku-4-5-20251001", errors.New("overloaded"))
	wrapped := fmt.Errorf("chat failed: %w", inner)

	pe, ok := GetProviderError(wrapped)
	if !ok {
		t.Fatal("expected ProviderError in chain")
	}
	if pe.Provider != "anthropic" {
		t.Errorf("Provider = %q", pe.Provider)
	}
	if pe.Reason != ReasonUnavailable {
		t.Errorf("Reason = %v, want %v", pe.Reason, ReasonUnavailable)
	}
}
