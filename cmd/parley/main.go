// Package main provides the CLI entry point for the Parley research
// assistant core.
//
// Parley turns spoken-style utterances into answers: simple questions
// go through a tool-calling chat loop, research-shaped requests route
// into multi-step search workflows.
//
// # Basic Usage
//
// Start an interactive session:
//
//	parley chat
//
// Ask a single question:
//
//	parley ask "what's the weather in Austin"
//
// Inspect what's available:
//
//	parley workflows
//	parley tools
//
// # Environment Variables
//
//   - PARLEY_PROVIDER: LLM backend (anthropic, openai, ollama)
//   - PARLEY_MODEL: model name for the selected backend
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: provider credentials
//   - OLLAMA_URL: Ollama base URL (default http://localhost:11434)
//   - TAVILY_API_KEY / BRAVE_API_KEY: web search backends
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley - voice-first research assistant core",
		Long: `Parley routes utterances to a tool-calling chat loop or to
multi-step research workflows, and speaks the result back as text.

Supported LLM backends: Anthropic (Claude), OpenAI (GPT), Ollama
Available tools: Web Search, Date/Time`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildChatCmd(),
		buildAskCmd(),
		buildWorkflowsCmd(),
		buildToolsCmd(),
	)

	return rootCmd
}
