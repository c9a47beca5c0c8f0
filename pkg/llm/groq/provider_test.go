package groq

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"course-buddy-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat_SendsKeyAndReturnsUsage(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer request-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  hello  "}}],"usage":{"total_tokens":42}}`)
	}))
	defer srv.Close()

	p := NewProvider("default-key", srv.URL, "llama-3.3-70b-versatile")
	res, err := p.Chat(t.Context(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		llm.WithAPIKey("request-key"), llm.WithMaxTokens(100))

	require.NoError(t, err)
	assert.Equal(t, "hello", res.Content)
	assert.Equal(t, 42, res.TokensUsed)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.False(t, got.Stream)
}

func TestChat_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, llm.ErrAuthentication},
		{http.StatusTooManyRequests, llm.ErrCapacityExceeded},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":{"message":"nope"}}`)
			}))
			defer srv.Close()

			_, err := NewProvider("k", srv.URL, "m").Chat(t.Context(), nil)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestChat_OtherStatusIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewProvider("k", srv.URL, "m").Chat(t.Context(), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, llm.ErrAuthentication)
	assert.NotErrorIs(t, err, llm.ErrCapacityExceeded)
}

func TestStream_ReadsEventsUntilDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"x_groq\":{\"usage\":{\"total_tokens\":17}}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	}))
	defer srv.Close()

	stream, err := NewProvider("k", srv.URL, "m").Stream(t.Context(), nil)
	require.NoError(t, err)
	defer stream.Close()

	var sb strings.Builder
	for stream.Next() {
		sb.WriteString(stream.Token())
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, "Hello", sb.String())

	usage, ok := stream.(llm.UsageReporter)
	require.True(t, ok)
	assert.Equal(t, 17, usage.TokensUsed())
	assert.False(t, stream.Next())
	assert.NoError(t, stream.Close())
}

func TestStream_CapacityErrorBeforeFirstToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewProvider("k", srv.URL, "m").Stream(t.Context(), nil)
	assert.ErrorIs(t, err, llm.ErrCapacityExceeded)
}

func TestStream_MalformedChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json\n\n")
	}))
	defer srv.Close()

	stream, err := NewProvider("k", srv.URL, "m").Stream(t.Context(), nil)
	require.NoError(t, err)
	assert.False(t, stream.Next())
	assert.Error(t, stream.Err())
}

func TestDescribeImage(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"A Python traceback"}}]}`)
	}))
	defer srv.Close()

	p := NewProvider("k", srv.URL, "m")
	out, err := p.DescribeImage(t.Context(), "QUJD", "why does this fail?", llm.WithModel("vision-model"))

	require.NoError(t, err)
	assert.Equal(t, "A Python traceback", out)
	assert.Equal(t, "vision-model", raw["model"])
	assert.EqualValues(t, 500, raw["max_tokens"])

	msgs := raw["messages"].([]any)
	parts := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	img := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", img["url"])
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,xx", DataURL("data:image/png;base64,xx"))
	assert.Equal(t, "data:image/jpeg;base64,xx", DataURL("xx"))
}

func TestVerifyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, 5, req.MaxTokens)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hi"}}]}`)
	}))
	defer srv.Close()

	p := NewProvider("", srv.URL, "m")
	assert.NoError(t, p.VerifyKey(t.Context(), "good"))
	assert.ErrorIs(t, p.VerifyKey(t.Context(), "bad"), llm.ErrAuthentication)
}
