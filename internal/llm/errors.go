package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason categorizes why a provider request failed. The orchestrator
// and entry dispatcher branch on it: retryable reasons get another
// attempt inside the provider, the rest surface to the caller.
type Reason string

const (
	// ReasonUnavailable indicates the backend could not be reached or
	// answered with a server-side failure (connection refused, 5xx).
	ReasonUnavailable Reason = "unavailable"

	// ReasonRateLimited indicates throttling (HTTP 429).
	ReasonRateLimited Reason = "rate_limited"

	// ReasonInvalidResponse indicates the backend answered but the body
	// could not be interpreted (malformed JSON, missing fields).
	ReasonInvalidResponse Reason = "invalid_response"

	// ReasonContextOverflow indicates the request exceeded the model's
	// context window.
	ReasonContextOverflow Reason = "context_overflow"

	// ReasonAuth indicates credential failure (HTTP 401, 403).
	ReasonAuth Reason = "auth"

	// ReasonInvalidRequest indicates a client-side problem (HTTP 400
	// other than context overflow).
	ReasonInvalidRequest Reason = "invalid_request"

	// ReasonTimeout indicates the request deadline expired.
	ReasonTimeout Reason = "timeout"

	// ReasonUnknown indicates an unclassified error.
	ReasonUnknown Reason = "unknown"
)

// IsRetryable returns true if another attempt against the same
// provider may succeed.
func (r Reason) IsRetryable() bool {
	switch r {
	case ReasonRateLimited, ReasonTimeout, ReasonUnavailable:
		return true
	default:
		return false
	}
}

// ProviderError is a structured error from an LLM backend. It carries
// the context needed for retry decisions and debugging.
type ProviderError struct {
	Reason    Reason
	Provider  string
	Model     string
	Status    int
	Code      string
	Message   string
	RequestID string
	Cause     error
}

func (e *ProviderError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Reason))
	if e.Provider != "" {
		parts = append(parts, e.Provider)
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.Status))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, " ")
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError wraps cause with provider context, classifying the
// reason from the error text when nothing better is known yet.
func NewProviderError(provider, model string, cause error) *ProviderError {
	err := &ProviderError{
		Provider: provider,
		Model:    model,
		Cause:    cause,
		Reason:   ReasonUnknown,
	}
	if cause != nil {
		err.Message = cause.Error()
		err.Reason = ClassifyError(cause)
	}
	return err
}

// WithStatus records the HTTP status and reclassifies from it.
func (e *ProviderError) WithStatus(status int) *ProviderError {
	e.Status = status
	e.Reason = classifyStatusCode(status)
	return e
}

// WithCode records a provider-specific error code and reclassifies
// when the code is recognized.
func (e *ProviderError) WithCode(code string) *ProviderError {
	e.Code = code
	if reason := classifyErrorCode(code); reason != ReasonUnknown {
		e.Reason = reason
	}
	return e
}

// WithRequestID records the provider's request ID.
func (e *ProviderError) WithRequestID(id string) *ProviderError {
	e.RequestID = id
	return e
}

// WithMessage sets the human-readable message.
func (e *ProviderError) WithMessage(msg string) *ProviderError {
	e.Message = msg
	return e
}

// ClassifyError inspects an error's text and returns a Reason.
func ClassifyError(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "context length") ||
		strings.Contains(errStr, "context window") ||
		strings.Contains(errStr, "maximum context") ||
		strings.Contains(errStr, "prompt is too long") ||
		strings.Contains(errStr, "too many tokens") {
		return ReasonContextOverflow
	}

	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context deadline") {
		return ReasonTimeout
	}

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") {
		return ReasonRateLimited
	}

	if strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "invalid api key") ||
		strings.Contains(errStr, "invalid_api_key") ||
		strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") {
		return ReasonAuth
	}

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "internal server") ||
		strings.Contains(errStr, "server error") ||
		strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "unavailable") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") {
		return ReasonUnavailable
	}

	if strings.Contains(errStr, "unexpected end of json") ||
		strings.Contains(errStr, "invalid character") ||
		strings.Contains(errStr, "cannot unmarshal") {
		return ReasonInvalidResponse
	}

	return ReasonUnknown
}

func classifyStatusCode(status int) Reason {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusTooManyRequests:
		return ReasonRateLimited
	case status == http.StatusBadRequest:
		return ReasonInvalidRequest
	case status == http.StatusRequestEntityTooLarge:
		return ReasonContextOverflow
	case status >= 500:
		return ReasonUnavailable
	default:
		return ReasonUnknown
	}
}

func classifyErrorCode(code string) Reason {
	switch strings.ToLower(code) {
	case "rate_limit_error", "rate_limit_exceeded":
		return ReasonRateLimited
	case "authentication_error", "invalid_api_key", "permission_error":
		return ReasonAuth
	case "context_length_exceeded", "request_too_large":
		return ReasonContextOverflow
	case "overloaded_error", "api_error", "server_error", "internal_error":
		return ReasonUnavailable
	case "invalid_request_error":
		return ReasonInvalidRequest
	default:
		return ReasonUnknown
	}
}

// IsProviderError reports whether err wraps a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// GetProviderError extracts a ProviderError from an error chain.
func GetProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsRetryable reports whether an error should get another attempt.
func IsRetryable(err error) bool {
	if pe, ok := GetProviderError(err); ok {
		return pe.Reason.IsRetryable()
	}
	return ClassifyError(err).IsRetryable()
}
