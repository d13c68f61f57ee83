package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/parleyhq/parley/pkg/models"
)

const defaultOllamaModel = "qwen2.5:14b"

// OllamaProvider is the local backend. Ollama speaks plain HTTP JSON,
// so no SDK is involved; the request uses stream:false and reads one
// response object.
type OllamaProvider struct {
	client       *http.Client
	baseURL      string
	defaultModel string
}

// OllamaConfig configures the local backend.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	model := strings.TrimSpace(cfg.DefaultModel)
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		defaultModel: model,
	}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) SupportsTools() bool {
	return true
}

func (p *OllamaProvider) Generate(ctx context.Context, req *Request) (*Result, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}

	payload := ollamaChatRequest{
		Model:    model,
		Stream:   false,
		Messages: buildOllamaMessages(req),
	}
	if len(req.Tools) > 0 {
		payload.Tools = convertOpenAITools(req.Tools)
	}
	if req.MaxTokens > 0 {
		payload.Options = map[string]any{"num_predict": req.MaxTokens}
	}
	if req.DisableThinking {
		payload.Think = new(bool)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError("ollama", model, fmt.Errorf("marshal request: %w", err))
	}

	url := p.baseURL + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError("ollama", model, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError("ollama", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		if readErr != nil {
			return nil, NewProviderError("ollama", model,
				fmt.Errorf("ollama status %d (read body failed: %w)", resp.StatusCode, readErr)).WithStatus(resp.StatusCode)
		}
		return nil, NewProviderError("ollama", model,
			fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))).WithStatus(resp.StatusCode)
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		pe := NewProviderError("ollama", model, fmt.Errorf("decode response: %w", err))
		pe.Reason = ReasonInvalidResponse
		return nil, pe
	}
	if chatResp.Error != "" {
		return nil, NewProviderError("ollama", model, errors.New(chatResp.Error))
	}
	if chatResp.Message == nil {
		pe := NewProviderError("ollama", model, errors.New("response missing message"))
		pe.Reason = ReasonInvalidResponse
		return nil, pe
	}

	res := &Result{
		PromptTokens: chatResp.PromptEvalCount,
		OutputTokens: chatResp.EvalCount,
	}
	for _, tc := range chatResp.Message.ToolCalls {
		callID := strings.TrimSpace(tc.ID)
		if callID == "" {
			callID = "call_" + uuid.NewString()
		}
		args := tc.Function.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}
		res.ToolCalls = append(res.ToolCalls, models.ToolCall{
			ID:    callID,
			Name:  strings.TrimSpace(tc.Function.Name),
			Input: args,
		})
	}
	finalize(res, chatResp.Message.Content)
	return res, nil
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Tools    []openai.Tool       `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Think    *bool               `json:"think,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	Done            bool               `json:"done"`
	Error           string             `json:"error"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// buildOllamaMessages flattens the canonical split shape into ollama's
// chat format. Tool results become bare role:tool messages; the tool
// name is recovered from the originating call so the model can match
// results to requests.
func buildOllamaMessages(req *Request) []ollamaChatMessage {
	messages := make([]ollamaChatMessage, 0, len(req.Messages)+1)
	toolNames := map[string]string{}
	for _, msg := range req.Messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID != "" && tc.Name != "" {
				toolNames[tc.ID] = tc.Name
			}
		}
	}

	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: system})
	}

	for _, msg := range req.Messages {
		role := string(msg.Role)
		if role == "" {
			role = "user"
		}
		switch msg.Role {
		case models.RoleAssistant:
			ollamaMsg := ollamaChatMessage{Role: role, Content: msg.Content}
			if len(msg.ToolCalls) > 0 {
				ollamaMsg.ToolCalls = make([]ollamaToolCall, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					args := tc.Input
					if len(args) == 0 {
						args = json.RawMessage(`{}`)
					}
					ollamaMsg.ToolCalls[i] = ollamaToolCall{
						ID:   tc.ID,
						Type: "function",
						Function: ollamaToolFunction{
							Name:      tc.Name,
							Arguments: args,
						},
					}
				}
			}
			messages = append(messages, ollamaMsg)
		case models.RoleTool:
			if len(msg.ToolResults) > 0 {
				for _, tr := range msg.ToolResults {
					messages = append(messages, ollamaChatMessage{
						Role:     "tool",
						Content:  tr.Content,
						ToolName: toolNames[tr.ToolCallID],
					})
				}
			} else {
				messages = append(messages, ollamaChatMessage{Role: role, Content: msg.Content})
			}
		case models.RoleSystem:
			// Already carried via req.System; a literal system message
			// in history would duplicate it.
		default:
			messages = append(messages, ollamaChatMessage{Role: role, Content: msg.Content})
		}
	}
	return messages
}
