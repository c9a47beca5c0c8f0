package groq

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	XGroq *struct {
		Usage *usage `json:"usage,omitempty"`
	} `json:"x_groq,omitempty"`
}

// eventStream reads "data: {...}" server-sent events until "[DONE]".
type eventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	token  string
	err    error
	done   bool
	tokens int

	closeOnce sync.Once
}

func newEventStream(body io.ReadCloser) *eventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &eventStream{body: body, scanner: scanner}
}

func (s *eventStream) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.finish(nil)
			return false
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			s.finish(fmt.Errorf("failed to decode stream chunk: %w", err))
			return false
		}
		if chunk.Usage != nil {
			s.tokens = chunk.Usage.TotalTokens
		} else if chunk.XGroq != nil && chunk.XGroq.Usage != nil {
			s.tokens = chunk.XGroq.Usage.TotalTokens
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			s.token = chunk.Choices[0].Delta.Content
			return true
		}
	}
	s.finish(s.scanner.Err())
	return false
}

func (s *eventStream) finish(err error) {
	s.done = true
	s.token = ""
	if err != nil && s.err == nil {
		s.err = err
	}
	_ = s.Close()
}

func (s *eventStream) Token() string { return s.token }

func (s *eventStream) Err() error { return s.err }

func (s *eventStream) TokensUsed() int { return s.tokens }

func (s *eventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
