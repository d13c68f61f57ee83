package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure for Parley.
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
	History      HistoryConfig      `yaml:"history"`
	Search       SearchConfig       `yaml:"search"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LLMConfig selects the backend and model. An empty Provider means
// auto-detect from credentials (anthropic, then openai, then ollama).
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OllamaURL       string `yaml:"ollama_url"`
	MaxTokens       int    `yaml:"max_tokens"`
	MaxRetries      int    `yaml:"max_retries"`
}

type OrchestratorConfig struct {
	MaxToolIterations int    `yaml:"max_tool_iterations"`
	SystemPrompt      string `yaml:"system_prompt"`
}

type WorkflowConfig struct {
	LoopDelaySecs float64 `yaml:"loop_delay_secs"`
	SnippetCap    int     `yaml:"snippet_cap"`
	AggregateCap  int     `yaml:"aggregate_cap"`
}

type HistoryConfig struct {
	MaxGroups int `yaml:"max_groups"`
}

type SearchConfig struct {
	TavilyAPIKey  string  `yaml:"tavily_api_key"`
	BraveAPIKey   string  `yaml:"brave_api_key"`
	MaxResults    int     `yaml:"max_results"`
	SnippetMaxLen int     `yaml:"snippet_max_len"`
	TimeoutSecs   float64 `yaml:"timeout_secs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file. Environment variables
// referenced in the file are expanded, then direct environment
// overrides and defaults are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a configuration from environment variables alone, for
// running without a config file.
func FromEnv() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARLEY_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.LLM.OllamaURL = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		cfg.Search.TavilyAPIKey = v
	}
	if v := os.Getenv("BRAVE_API_KEY"); v != "" {
		cfg.Search.BraveAPIKey = v
	}
	if n, ok := envInt("PARLEY_MAX_TOOL_ITERATIONS"); ok {
		cfg.Orchestrator.MaxToolIterations = n
	}
	if n, ok := envInt("PARLEY_HISTORY_GROUPS"); ok {
		cfg.History.MaxGroups = n
	}
	if f, ok := envFloat("PARLEY_LOOP_DELAY_SECS"); ok {
		cfg.Workflow.LoopDelaySecs = f
	}
	if n, ok := envInt("PARLEY_SNIPPET_CAP"); ok {
		cfg.Workflow.SnippetCap = n
	}
	if n, ok := envInt("PARLEY_AGGREGATE_CAP"); ok {
		cfg.Workflow.AggregateCap = n
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.OllamaURL == "" {
		cfg.LLM.OllamaURL = "http://localhost:11434"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 300
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.Orchestrator.MaxToolIterations == 0 {
		cfg.Orchestrator.MaxToolIterations = 5
	}
	if cfg.Workflow.LoopDelaySecs == 0 {
		cfg.Workflow.LoopDelaySecs = 1.5
	}
	if cfg.Workflow.SnippetCap == 0 {
		cfg.Workflow.SnippetCap = 150
	}
	if cfg.Workflow.AggregateCap == 0 {
		cfg.Workflow.AggregateCap = 2500
	}
	if cfg.History.MaxGroups == 0 {
		cfg.History.MaxGroups = 10
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 4
	}
	if cfg.Search.SnippetMaxLen == 0 {
		cfg.Search.SnippetMaxLen = 200
	}
	if cfg.Search.TimeoutSecs == 0 {
		cfg.Search.TimeoutSecs = 5
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate rejects configurations that cannot produce a working
// assistant. Credentials are checked at provider construction, not
// here, so a credential-free config is still valid (ollama needs none).
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "", "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.Orchestrator.MaxToolIterations < 1 {
		return fmt.Errorf("max_tool_iterations must be >= 1, got %d", c.Orchestrator.MaxToolIterations)
	}
	if c.History.MaxGroups < 1 {
		return fmt.Errorf("history max_groups must be >= 1, got %d", c.History.MaxGroups)
	}
	if c.Workflow.LoopDelaySecs < 0 {
		return fmt.Errorf("loop_delay_secs must be >= 0, got %v", c.Workflow.LoopDelaySecs)
	}
	if c.Workflow.SnippetCap < 1 || c.Workflow.AggregateCap < c.Workflow.SnippetCap {
		return fmt.Errorf("invalid truncation caps: snippet=%d aggregate=%d",
			c.Workflow.SnippetCap, c.Workflow.AggregateCap)
	}
	return nil
}
