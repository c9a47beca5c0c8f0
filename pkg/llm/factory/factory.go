package factory

import (
	"fmt"

	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/llm/groq"
	"course-buddy-be/pkg/llm/ollama"
)

// NewLLMProvider builds the chat backend named by providerType.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "groq", "":
		return groq.NewProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
