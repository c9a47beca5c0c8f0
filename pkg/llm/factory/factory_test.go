package factory

import (
	"testing"

	"course-buddy-be/pkg/llm/groq"
	"course-buddy-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("groq", "m", "", "k")
	require.NoError(t, err)
	assert.IsType(t, &groq.Provider{}, p)

	p, err = NewLLMProvider("ollama", "m", "", "")
	require.NoError(t, err)
	o := p.(*ollama.OllamaProvider)
	assert.Equal(t, "http://localhost:11434", o.BaseURL)

	_, err = NewLLMProvider("nope", "m", "", "")
	assert.Error(t, err)
}
