// commands.go contains the cobra command definitions and their flag
// configurations. Each command builder wires a command to its handler.
package main

import (
	"github.com/spf13/cobra"
)

func buildChatCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive session against the configured LLM backend.

Each line you type is dispatched like a voice utterance: research-shaped
requests run multi-step search workflows with live progress output,
everything else goes through the tool-calling chat loop.

Session commands: /reset clears history, /quit exits.`,
		Example: `  # Chat with auto-detected provider
  parley chat

  # Chat against a local Ollama model with debug logging
  PARLEY_PROVIDER=ollama parley chat --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file (optional; environment is used otherwise)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

func buildAskCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "ask [utterance]",
		Short: "Dispatch a single utterance and print the reply",
		Args:  cobra.MinimumNArgs(1),
		Example: `  parley ask "what time is it in Tokyo"
  parley ask "research the latest developments in fusion energy"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), configPath, debug, args)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file (optional; environment is used otherwise)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

func buildWorkflowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List available research workflows and their triggers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflows(cmd)
		},
	}
}

func buildToolsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTools(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file (optional; environment is used otherwise)")

	return cmd
}
