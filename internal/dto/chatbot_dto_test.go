package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"course-buddy-be/internal/pkg/serverutils"
	"course-buddy-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() ChatRequest {
	return ChatRequest{
		APIKey:              "gsk_x",
		Message:             "what is a tensor?",
		CourseTitle:         "Deep Learning",
		CurrentLectureOrder: 2,
		LectureID:           "lec-3",
	}
}

func TestChatRequest_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ChatRequest)
		field  string
	}{
		{"blank lecture id", func(r *ChatRequest) { r.LectureID = "  " }, "lectureId"},
		{"blank course", func(r *ChatRequest) { r.CourseTitle = "" }, "courseTitle"},
		{"negative order", func(r *ChatRequest) { r.CurrentLectureOrder = -1 }, "currentLectureOrder"},
		{"empty message", func(r *ChatRequest) { r.Message = " \n" }, "message"},
		{"long message", func(r *ChatRequest) { r.Message = strings.Repeat("a", 1001) }, "message"},
		{"bad mode", func(r *ChatRequest) { r.TeachingMode = "lecture" }, "teachingMode"},
		{"bad hint", func(r *ChatRequest) { r.HintStage = 4 }, "hintStage"},
		{"bad role", func(r *ChatRequest) { r.History = []ChatMessage{{Role: "system"}} }, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := serverutils.ValidateRequest(r)
			var verr *serverutils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Errors[0].Field)
		})
	}

	r := validRequest()
	r.Message = strings.Repeat("a", 1000)
	assert.NoError(t, serverutils.ValidateRequest(r))
}

func TestChatRequest_Normalize(t *testing.T) {
	r := validRequest()
	r.LectureID = " lec-3 "
	r.CourseTitle = " Deep Learning\t"
	r.Normalize()

	assert.Equal(t, "lec-3", r.LectureID)
	assert.Equal(t, "Deep Learning", r.CourseTitle)
	assert.Equal(t, "fix", r.TeachingMode)
	assert.Equal(t, "casual", r.ResponseStyle)
	assert.Equal(t, 1, r.HintStage)
}

func TestStreamEvent_JSON(t *testing.T) {
	b, err := json.Marshal(TokenEvent("Hi "))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"token","content":"Hi "}`, string(b))

	b, err = json.Marshal(DoneEvent(store.ResponseOffTopic, nil, false, false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done","references":[],"responseType":"off_topic","cacheHit":false,"showReferences":false}`, string(b))
}

func TestNewChatResponse_MarksUnanswerable(t *testing.T) {
	resp := NewChatResponse(&store.RAGResponse{Message: "nope", ResponseType: store.ResponseOffTopic}, false, "https://discord")
	assert.True(t, resp.IsNotAnswerable)
	assert.Equal(t, "https://discord", resp.DiscordURL)
	assert.NotNil(t, resp.References)

	resp = NewChatResponse(&store.RAGResponse{Message: "yes", ResponseType: store.ResponseInScope}, true, "https://discord")
	assert.False(t, resp.IsNotAnswerable)
	assert.Empty(t, resp.DiscordURL)
}
