// Package websearch implements the web_search tool over a chain of
// HTTP search backends: Tavily, then Brave, then DuckDuckGo. The first
// backend that returns results wins; backends without credentials are
// skipped.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Four results keeps prompts small and 200 characters is enough
// snippet for an LLM to judge relevance.
const (
	DefaultMaxResults = 4
	DefaultSnippetLen = 200
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Response is a completed search with its originating query and the
// backend that served it.
type Response struct {
	Provider string   `json:"provider"`
	Query    string   `json:"query"`
	Results  []Result `json:"results"`
}

// Config holds backend credentials and limits.
type Config struct {
	TavilyAPIKey string
	BraveAPIKey  string
	MaxResults   int
	SnippetLen   int
	Timeout      time.Duration
}

// Client runs searches against the backend chain.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config) *Client {
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultMaxResults
	}
	if config.SnippetLen <= 0 {
		config.SnippetLen = DefaultSnippetLen
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     slog.Default().With("component", "websearch"),
	}
}

// Endpoints are variables so tests can point them at a local server.
var (
	tavilyEndpoint     = "https://api.tavily.com/search"
	braveEndpoint      = "https://api.search.brave.com/res/v1/web/search"
	duckDuckGoEndpoint = "https://api.duckduckgo.com/"
)

// Search tries each configured backend in order and returns the first
// non-empty response. All-backends-failed is an error; the tool layer
// turns it into an error tool result.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if c.config.TavilyAPIKey != "" {
		resp, err := c.searchTavily(ctx, query)
		if err != nil {
			c.logger.Warn("tavily search failed", "error", err)
		} else if len(resp.Results) > 0 {
			return resp, nil
		}
	}

	if c.config.BraveAPIKey != "" {
		resp, err := c.searchBrave(ctx, query)
		if err != nil {
			c.logger.Warn("brave search failed", "error", err)
		} else if len(resp.Results) > 0 {
			return resp, nil
		}
	}

	resp, err := c.searchDuckDuckGo(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("all search backends failed: %w", err)
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("no results for %q", query)
	}
	return resp, nil
}

func (c *Client) searchTavily(ctx context.Context, query string) (*Response, error) {
	payload, err := json.Marshal(map[string]any{
		"query":          query,
		"max_results":    c.config.MaxResults,
		"include_answer": false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.config.TavilyAPIKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var tavilyResp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &tavilyResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	resp := &Response{Provider: "tavily", Query: query}
	for _, r := range tavilyResp.Results {
		if len(resp.Results) >= c.config.MaxResults {
			break
		}
		resp.Results = append(resp.Results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncate(r.Content, c.config.SnippetLen),
		})
	}
	return resp, nil
}

func (c *Client) searchBrave(ctx context.Context, query string) (*Response, error) {
	searchURL, err := url.Parse(braveEndpoint)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", c.config.MaxResults))
	searchURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Subscription-Token", c.config.BraveAPIKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &braveResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	resp := &Response{Provider: "brave", Query: query}
	for _, r := range braveResp.Web.Results {
		if len(resp.Results) >= c.config.MaxResults {
			break
		}
		resp.Results = append(resp.Results, Result{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: truncate(r.Description, c.config.SnippetLen),
		})
	}
	return resp, nil
}

func (c *Client) searchDuckDuckGo(ctx context.Context, query string) (*Response, error) {
	instantURL := fmt.Sprintf("%s?q=%s&format=json&no_html=1", duckDuckGoEndpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instantURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ParleyBot/1.0)")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var ddgResp struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &ddgResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	resp := &Response{Provider: "duckduckgo", Query: query}
	if ddgResp.AbstractText != "" && ddgResp.AbstractURL != "" {
		resp.Results = append(resp.Results, Result{
			Title:   ddgResp.Heading,
			URL:     ddgResp.AbstractURL,
			Snippet: truncate(ddgResp.AbstractText, c.config.SnippetLen),
		})
	}
	for _, topic := range ddgResp.RelatedTopics {
		if len(resp.Results) >= c.config.MaxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		resp.Results = append(resp.Results, Result{
			Title:   truncate(topic.Text, 100),
			URL:     topic.FirstURL,
			Snippet: truncate(topic.Text, c.config.SnippetLen),
		})
	}
	return resp, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return io.ReadAll(resp.Body)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
