package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"course-buddy-be/pkg/llm"
)

// OllamaProvider serves chat from a local Ollama server. Used for
// development without a hosted key.
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
}

func (o *OllamaProvider) payload(history []llm.Message, options llm.Options, stream bool) ollamaChatRequest {
	msgs := make([]ollamaMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = llm.RoleAssistant
		}
		msgs[i] = ollamaMessage{Role: role, Content: msg.Content}
	}

	req := ollamaChatRequest{
		Model:    options.Model,
		Messages: msgs,
		Stream:   stream,
		Options:  &ollamaOptions{Temperature: options.Temperature},
	}
	if options.MaxTokens > 0 {
		req.Options.NumPredict = options.MaxTokens
	}
	return req
}

func (o *OllamaProvider) do(ctx context.Context, body ollamaChatRequest) (*http.Response, error) {
	payloadBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/chat", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}
	return resp, nil
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.ChatResult, error) {
	options := llm.Apply(llm.Options{Temperature: 0.7, Model: o.ModelName}, opts...)

	resp, err := o.do(ctx, o.payload(history, options, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ollamaResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &llm.ChatResult{
		Content:    ollamaResp.Message.Content,
		TokensUsed: ollamaResp.PromptEvalCount + ollamaResp.EvalCount,
		Model:      options.Model,
	}, nil
}

// Stream reads Ollama's newline-delimited JSON stream.
func (o *OllamaProvider) Stream(ctx context.Context, history []llm.Message, opts ...llm.Option) (llm.TokenStream, error) {
	options := llm.Apply(llm.Options{Temperature: 0.7, Model: o.ModelName}, opts...)

	resp, err := o.do(ctx, o.payload(history, options, true))
	if err != nil {
		return nil, err
	}
	return &lineStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

type lineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	token   string
	err     error
	done    bool
	tokens  int
	once    sync.Once
}

func (s *lineStream) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.err = fmt.Errorf("unmarshal stream chunk: %w", err)
			break
		}
		if chunk.Done {
			s.tokens = chunk.PromptEvalCount + chunk.EvalCount
			break
		}
		if chunk.Message.Content != "" {
			s.token = chunk.Message.Content
			return true
		}
	}
	if s.err == nil {
		s.err = s.scanner.Err()
	}
	s.done = true
	s.token = ""
	_ = s.Close()
	return false
}

func (s *lineStream) Token() string   { return s.token }
func (s *lineStream) Err() error      { return s.err }
func (s *lineStream) TokensUsed() int { return s.tokens }

func (s *lineStream) Close() error {
	var err error
	s.once.Do(func() { err = s.body.Close() })
	return err
}
