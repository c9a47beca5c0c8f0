package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"course-buddy-be/pkg/llm"
)

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// DataURL accepts a full data URL or raw base64 (assumed JPEG).
func DataURL(imageBase64 string) string {
	if strings.HasPrefix(imageBase64, "data:") {
		return imageBase64
	}
	return "data:image/jpeg;base64," + imageBase64
}

// DescribeImage asks a vision model to extract what is relevant to question.
func (p *Provider) DescribeImage(ctx context.Context, imageBase64, question string, options ...llm.Option) (string, error) {
	opts := p.options(append([]llm.Option{llm.WithMaxTokens(500)}, options...))

	prompt := fmt.Sprintf(
		"A learner uploaded this screenshot while studying a course. Their question: %q\n\n"+
			"Describe what you see in the image. Extract any code, error messages, formulas, data, "+
			"or UI elements visible. Be concise and factual.", question)

	resp, err := p.post(ctx, opts.APIKey, chatRequest{
		Model: opts.Model,
		Messages: []visionMessage{{
			Role: llm.RoleUser,
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: DataURL(imageBase64)}},
			},
		}},
		MaxTokens: opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from vision model")
	}
	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
