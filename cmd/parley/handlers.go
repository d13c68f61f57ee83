// handlers.go contains the command handlers: CLI setup, the
// interactive chat loop, and the listing commands.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/assistant"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/llm"
	"github.com/parleyhq/parley/internal/observability"
	"github.com/parleyhq/parley/internal/tools"
	"github.com/parleyhq/parley/internal/tools/datetime"
	"github.com/parleyhq/parley/internal/tools/websearch"
	"github.com/parleyhq/parley/internal/workflow"
	"github.com/parleyhq/parley/pkg/models"
)

const chatSessionID = "cli"

// loadConfig reads the config file when given, otherwise builds one
// from the environment.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv(), nil
	}
	return config.Load(path)
}

// buildDispatcher assembles the full stack: config, logger, metrics,
// provider, tool registry, dispatcher.
func buildDispatcher(configPath string, debug bool) (*assistant.Dispatcher, *config.Config, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Logging.Format,
	})

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize llm provider: %w", err)
	}
	logger.Info("provider ready", "provider", provider.Name(), "model", cfg.LLM.Model)

	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	metrics := observability.NewMetrics()
	dispatcher, err := assistant.New(cfg, provider, registry, logger, metrics)
	if err != nil {
		return nil, nil, err
	}
	return dispatcher, cfg, nil
}

func buildRegistry(cfg *config.Config) (*tools.Registry, error) {
	registry := tools.NewRegistry()

	searchClient := websearch.NewClient(websearch.Config{
		TavilyAPIKey: cfg.Search.TavilyAPIKey,
		BraveAPIKey:  cfg.Search.BraveAPIKey,
		MaxResults:   cfg.Search.MaxResults,
		SnippetLen:   cfg.Search.SnippetMaxLen,
	})
	if err := registry.Register(websearch.NewTool(searchClient)); err != nil {
		return nil, fmt.Errorf("register web_search: %w", err)
	}
	if err := registry.Register(datetime.NewTool()); err != nil {
		return nil, fmt.Errorf("register get_current_datetime: %w", err)
	}
	return registry, nil
}

// chatHooks prints interim progress the way a voice UI would speak it.
func chatHooks() assistant.Hooks {
	return assistant.Hooks{
		Observer: func(ev models.WorkflowEvent) {
			switch ev.Type {
			case models.EventWorkflowStart:
				fmt.Printf("  [workflow: %s]\n", ev.Start.Name)
			case models.EventWorkflowNarration:
				fmt.Printf("  %s\n", ev.Narration.Text)
			case models.EventWorkflowActivity:
				fmt.Printf("  ... %s\n", ev.Activity.Activity)
			case models.EventWorkflowLoopUpdate:
				if ev.LoopUpdate.ActiveIndex >= 0 {
					fmt.Printf("  ... search %d/%d\n", ev.LoopUpdate.ActiveIndex+1, len(ev.LoopUpdate.Children))
				}
			case models.EventWorkflowExit:
				if ev.Exit.Reason != models.ExitComplete {
					fmt.Printf("  [workflow %s]\n", ev.Exit.Reason)
				}
			}
		},
		OnStatus: func(phase string) {
			fmt.Printf("  [%s]\n", phase)
		},
		OnToolCall: func(name string, args json.RawMessage) {
			fmt.Printf("  [calling %s %s]\n", name, string(args))
		},
	}
}

func runChat(ctx context.Context, configPath string, debug bool) error {
	dispatcher, cfg, err := buildDispatcher(configPath, debug)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("parley %s — model %s. /reset clears history, /quit exits.\n", version, cfg.LLM.Model)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "/quit", "/exit":
			return nil
		case "/reset":
			dispatcher.Reset(chatSessionID)
			fmt.Println("history cleared")
			continue
		}

		reply, err := dispatcher.Dispatch(ctx, chatSessionID, line, chatHooks())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\ninterrupted")
				return nil
			}
			return err
		}
		fmt.Println(reply)

		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

func runAsk(ctx context.Context, configPath string, debug bool, args []string) error {
	dispatcher, _, err := buildDispatcher(configPath, debug)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utterance := strings.Join(args, " ")
	reply, err := dispatcher.Dispatch(ctx, chatSessionID, utterance, chatHooks())
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func runWorkflows(cmd *cobra.Command) error {
	for _, def := range workflow.Definitions() {
		fmt.Printf("%s — %s\n", def.ID, def.Name)
		fmt.Printf("  %s\n", def.Description)
		fmt.Printf("  triggers: %s (min %d words)\n", strings.Join(def.TriggerPatterns, ", "), def.MinQueryWords)
		for _, step := range def.Steps {
			fmt.Printf("    %-18s %s\n", step.ID, step.Type)
		}
		fmt.Println()
	}
	return nil
}

func runTools(cmd *cobra.Command, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	for _, schema := range registry.Schemas() {
		fmt.Printf("%s\n  %s\n", schema.Name, schema.Description)
	}
	return nil
}
