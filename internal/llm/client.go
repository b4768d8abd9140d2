// Package llm streams chat completions from OpenAI-compatible backends
// (LM Studio, OpenAI, OpenRouter) and from the Google Generative Language
// API. Only streaming synthesis lives here; one-shot completions go
// through the shared non-streaming client.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Provider identifiers. LM Studio and OpenRouter speak the OpenAI wire
// protocol; Google has its own.
const (
	ProviderLMStudio   = "lmstudio"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderGoogle     = "google"
)

const (
	defaultOpenAIBase     = "https://api.openai.com/v1"
	defaultOpenRouterBase = "https://openrouter.ai/api/v1"
	defaultLMStudioBase   = "http://localhost:1234/v1"
	googleBase            = "https://generativelanguage.googleapis.com/v1beta"
)

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Streamer produces a model response incrementally. Text fragments arrive
// on the first channel; a single terminal error, if any, on the second.
// Both channels close when the stream ends.
type Streamer interface {
	Stream(ctx context.Context, messages []Message) (<-chan string, <-chan error)
}

// ClientConfig configures a streaming client.
type ClientConfig struct {
	Provider    string
	BaseURL     string // empty = provider default
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client is a Streamer over one configured provider and model.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
}

// NewClient builds a streaming client, filling in the provider's default
// base URL when none is given.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm: model is required")
	}
	if cfg.BaseURL == "" {
		switch cfg.Provider {
		case ProviderOpenAI:
			cfg.BaseURL = defaultOpenAIBase
		case ProviderOpenRouter:
			cfg.BaseURL = defaultOpenRouterBase
		case ProviderLMStudio:
			cfg.BaseURL = defaultLMStudioBase
		case ProviderGoogle:
			cfg.BaseURL = googleBase
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
		}
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	httpc := cfg.HTTPClient
	if httpc == nil {
		// No overall timeout: streams are long-lived, cancellation comes
		// from the request context.
		httpc = &http.Client{Timeout: 0}
	}
	return &Client{cfg: cfg, httpc: httpc}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.cfg.Model }

// Stream sends the conversation and returns channels carrying the response
// fragments and at most one error.
func (c *Client) Stream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	contentChan := make(chan string, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errChan)

		var err error
		if c.cfg.Provider == ProviderGoogle {
			err = c.streamGoogle(ctx, messages, contentChan)
		} else {
			err = c.streamOpenAI(ctx, messages, contentChan)
		}
		if err != nil {
			errChan <- err
		}
	}()

	return contentChan, errChan
}

// --- OpenAI-compatible wire protocol ---

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) streamOpenAI(ctx context.Context, messages []Message, out chan<- string) error {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := sseData(scanner.Text())
		if !ok {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue // partial or keepalive line
		}
		if chunk.Error != nil {
			return fmt.Errorf("llm: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if text := chunk.Choices[0].Delta.Content; text != "" {
			select {
			case out <- text:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if fr := chunk.Choices[0].FinishReason; fr != nil && *fr != "" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("llm: read stream: %w", err)
	}
	return nil
}

// --- Google Generative Language API ---

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googleRequest struct {
	Contents         []googleContent `json:"contents"`
	GenerationConfig *struct {
		Temperature     float64 `json:"temperature,omitempty"`
		MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig,omitempty"`
}

type googleChunk struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) streamGoogle(ctx context.Context, messages []Message, out chan<- string) error {
	greq := googleRequest{}
	for _, m := range messages {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		if role != "user" && role != "model" {
			role = "user" // system prompts fold into the user turn
		}
		greq.Contents = append(greq.Contents, googleContent{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}
	if c.cfg.Temperature > 0 || c.cfg.MaxTokens > 0 {
		greq.GenerationConfig = &struct {
			Temperature     float64 `json:"temperature,omitempty"`
			MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
		}{Temperature: c.cfg.Temperature, MaxOutputTokens: c.cfg.MaxTokens}
	}

	body, err := json.Marshal(greq)
	if err != nil {
		return fmt.Errorf("llm: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("llm: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		data, ok := sseData(scanner.Text())
		if !ok {
			continue
		}
		var chunk googleChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("llm: %s", chunk.Error.Message)
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case out <- part.Text:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("llm: read stream: %w", err)
	}
	return nil
}

// sseData extracts the payload of a "data:" SSE line.
func sseData(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "data:")), true
}

// apiError drains a bounded amount of an error response into a message.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("llm: status %d: %s", resp.StatusCode, msg)
}

// Collect drains a stream into a single string, for callers that do not
// need incremental output.
func Collect(ctx context.Context, s Streamer, messages []Message) (string, error) {
	contentChan, errChan := s.Stream(ctx, messages)
	var sb strings.Builder
	for contentChan != nil || errChan != nil {
		select {
		case text, ok := <-contentChan:
			if !ok {
				contentChan = nil
				continue
			}
			sb.WriteString(text)
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				return sb.String(), err
			}
		case <-ctx.Done():
			return sb.String(), ctx.Err()
		}
	}
	return sb.String(), nil
}
