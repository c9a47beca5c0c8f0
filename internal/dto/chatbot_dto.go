package dto

import (
	"encoding/json"
	"strings"

	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/store"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"oneof=user assistant"`
	Content string `json:"content"`
}

// ChatRequest is the body of both chat endpoints.
// CurrentLectureOrder is 0-based; stored lecture orders are 1-based.
type ChatRequest struct {
	APIKey              string        `json:"apiKey"`
	Message             string        `json:"message" validate:"notblank,max=1000"`
	CourseTitle         string        `json:"courseTitle" validate:"notblank"`
	CurrentLectureOrder int           `json:"currentLectureOrder" validate:"gte=0"`
	LectureID           string        `json:"lectureId" validate:"notblank"`
	History             []ChatMessage `json:"history" validate:"dive"`
	TeachingMode        string        `json:"teachingMode" validate:"omitempty,oneof=fix teach"`
	ResponseStyle       string        `json:"responseStyle" validate:"omitempty,oneof=casual direct"`
	HintStage           int           `json:"hintStage" validate:"omitempty,min=1,max=3"`
	ImageBase64         string        `json:"imageBase64,omitempty"`
}

// Normalize trims identifiers and fills mode defaults.
func (r *ChatRequest) Normalize() {
	r.LectureID = strings.TrimSpace(r.LectureID)
	r.CourseTitle = strings.TrimSpace(r.CourseTitle)
	if r.TeachingMode == "" {
		r.TeachingMode = "fix"
	}
	if r.ResponseStyle == "" {
		r.ResponseStyle = "casual"
	}
	if r.HintStage == 0 {
		r.HintStage = 1
	}
}

func (r *ChatRequest) LLMHistory() []llm.Message {
	out := make([]llm.Message, len(r.History))
	for i, m := range r.History {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

// ChatResponse is the single-shot answer.
type ChatResponse struct {
	Message         string            `json:"message"`
	References      []store.Reference `json:"references"`
	ResponseType    string            `json:"responseType"`
	CacheHit        bool              `json:"cacheHit"`
	ShowReferences  bool              `json:"showReferences"`
	IsNotAnswerable bool              `json:"isNotAnswerable"`
	DiscordURL      string            `json:"discordUrl,omitempty"`
	TokensUsed      *int              `json:"tokensUsed,omitempty"`
}

func NewChatResponse(r *store.RAGResponse, showReferences bool, communityURL string) *ChatResponse {
	refs := r.References
	if refs == nil {
		refs = []store.Reference{}
	}
	resp := &ChatResponse{
		Message:        r.Message,
		References:     refs,
		ResponseType:   string(r.ResponseType),
		CacheHit:       r.CacheHit,
		ShowReferences: showReferences,
		TokensUsed:     r.TokensUsed,
	}
	switch r.ResponseType {
	case store.ResponseOffTopic, store.ResponseRateLimited, store.ResponseError:
		resp.IsNotAnswerable = true
		resp.DiscordURL = communityURL
	}
	return resp
}

const (
	EventToken = "token"
	EventError = "error"
	EventDone  = "done"
)

// StreamEvent is one server-sent event of the streaming endpoint.
type StreamEvent struct {
	Type           string
	Content        string
	References     []store.Reference
	ResponseType   store.ResponseType
	CacheHit       bool
	ShowReferences bool
}

func TokenEvent(content string) StreamEvent {
	return StreamEvent{Type: EventToken, Content: content}
}

func ErrorEvent(content string) StreamEvent {
	return StreamEvent{Type: EventError, Content: content}
}

func DoneEvent(rt store.ResponseType, refs []store.Reference, cacheHit, showRefs bool) StreamEvent {
	return StreamEvent{Type: EventDone, ResponseType: rt, References: refs, CacheHit: cacheHit, ShowReferences: showRefs}
}

// MarshalJSON emits only the fields each event type carries.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventDone:
		refs := e.References
		if refs == nil {
			refs = []store.Reference{}
		}
		return json.Marshal(struct {
			Type           string             `json:"type"`
			References     []store.Reference  `json:"references"`
			ResponseType   store.ResponseType `json:"responseType"`
			CacheHit       bool               `json:"cacheHit"`
			ShowReferences bool               `json:"showReferences"`
		}{e.Type, refs, e.ResponseType, e.CacheHit, e.ShowReferences})
	default:
		return json.Marshal(struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}{e.Type, e.Content})
	}
}

type VerifyKeyRequest struct {
	APIKey string `json:"apiKey" validate:"notblank"`
}

type VerifyKeyResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	RagAvailable    bool   `json:"rag_available"`
	VectorStoreUp   bool   `json:"vector_store_connected"`
	EmbeddingModel  string `json:"embedding_provider"`
	SemanticEntries int    `json:"semantic_cache_entries"`
}
