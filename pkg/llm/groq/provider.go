package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"course-buddy-be/pkg/llm"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Provider talks to an OpenAI-compatible chat completions API (Groq by default).
type Provider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var (
	_ llm.LLMProvider    = (*Provider)(nil)
	_ llm.VisionAnalyzer = (*Provider)(nil)
	_ llm.KeyVerifier    = (*Provider)(nil)
)

// Request Payload Structure (OpenAI Compatible)
type chatRequest struct {
	Model       string      `json:"model"`
	Messages    interface{} `json:"messages"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Temperature *float64    `json:"temperature,omitempty"`
	Stream      bool        `json:"stream,omitempty"`
}

type usage struct {
	TotalTokens int `json:"total_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func NewProvider(apiKey, baseURL, model string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *Provider) options(options []llm.Option) llm.Options {
	return llm.Apply(llm.Options{
		Model:       p.model,
		MaxTokens:   1024,
		Temperature: 0.7,
		APIKey:      p.apiKey,
	}, options...)
}

func (p *Provider) post(ctx context.Context, apiKey string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, bodyBytes)
	}
	return resp, nil
}

// statusError maps HTTP failures onto the llm sentinel errors.
func statusError(status int, body []byte) error {
	msg := string(body)
	var parsed apiError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (status %d): %s", llm.ErrAuthentication, status, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w (status %d): %s", llm.ErrCapacityExceeded, status, msg)
	default:
		return fmt.Errorf("chat completion error (status %d): %s", status, msg)
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.ChatResult, error) {
	opts := p.options(options)

	resp, err := p.post(ctx, opts.APIKey, chatRequest{
		Model:       opts.Model,
		Messages:    history,
		MaxTokens:   opts.MaxTokens,
		Temperature: &opts.Temperature,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices from chat completion api")
	}

	result := &llm.ChatResult{
		Content: strings.TrimSpace(chatResp.Choices[0].Message.Content),
		Model:   opts.Model,
	}
	if chatResp.Usage != nil {
		result.TokensUsed = chatResp.Usage.TotalTokens
	}
	return result, nil
}

func (p *Provider) Stream(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.TokenStream, error) {
	opts := p.options(options)

	resp, err := p.post(ctx, opts.APIKey, chatRequest{
		Model:       opts.Model,
		Messages:    history,
		MaxTokens:   opts.MaxTokens,
		Temperature: &opts.Temperature,
		Stream:      true,
	})
	if err != nil {
		return nil, err
	}
	return newEventStream(resp.Body), nil
}

// VerifyKey sends a minimal completion with the given key.
func (p *Provider) VerifyKey(ctx context.Context, apiKey string) error {
	resp, err := p.post(ctx, apiKey, chatRequest{
		Model:     p.model,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Hi"}},
		MaxTokens: 5,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
