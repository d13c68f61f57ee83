// Package observability provides monitoring for the Parley core through
// Prometheus metrics and structured, secret-redacting logs.
//
// # Metrics
//
// Metrics use the Prometheus client library and track:
//   - LLM request latency and token usage (prompt, completion, thinking)
//   - Tool execution counts and duration
//   - Workflow run outcomes and per-step status
//   - Hedging recoveries (safety-net search, post-tool retry)
//   - Error rates by component
//   - Active session count
//
// # Logging
//
// Logging is built on slog with a redacting handler that scrubs API
// keys, bearer tokens, passwords, and JWTs from messages and string
// attribute values before they reach the sink. JSON output for
// production, text for a terminal.
package observability
