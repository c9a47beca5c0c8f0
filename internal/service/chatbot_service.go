package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"course-buddy-be/internal/dto"
	"course-buddy-be/internal/entity"
	"course-buddy-be/internal/pkg/logger"
	"course-buddy-be/pkg/embedding"
	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/llm/fallback"
	"course-buddy-be/pkg/rag"
	"course-buddy-be/pkg/rag/cache"
	"course-buddy-be/pkg/rag/classify"
	"course-buddy-be/pkg/rag/prompt"
	"course-buddy-be/pkg/rag/query"
	"course-buddy-be/pkg/rag/ratelimit"
	"course-buddy-be/pkg/rag/reference"
	"course-buddy-be/pkg/rag/response"
	"course-buddy-be/pkg/rag/search"
	"course-buddy-be/pkg/rag/struggle"
	"course-buddy-be/pkg/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IChatbotService answers learner questions about a course.
type IChatbotService interface {
	Ask(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error)
	// AskStream always ends with a done event and closes the channel.
	// Cancelling ctx stops generation and closes the upstream stream.
	AskStream(ctx context.Context, request *dto.ChatRequest) <-chan dto.StreamEvent
	RateStatus() ratelimit.Info
	CacheStats() cache.Stats
	Health(ctx context.Context) *dto.HealthResponse
	VerifyAPIKey(ctx context.Context, apiKey string) *dto.VerifyKeyResponse
}

// ChunkStore is the transcript index as the chatbot needs it.
type ChunkStore interface {
	search.VectorStore
	Lecture(ctx context.Context, lectureID string) (*entity.Lecture, bool, error)
	Ping(ctx context.Context) error
}

type ChatbotConfig struct {
	Models            []string
	VisionModels      []string
	MaxTokens         int
	Temperature       float64
	CommunityURL      string
	Persona           prompt.Persona
	Search            search.Config
	Classify          classify.Config
	EmbeddingProvider string
}

type chatbotService struct {
	store     ChunkStore
	llm       llm.LLMProvider
	vision    llm.VisionAnalyzer
	verifier  llm.KeyVerifier
	caches    *cache.Service
	limiter   *ratelimit.Limiter
	config    ChatbotConfig
	logger    logger.ILogger
	ragLogger rag.Logger
	tracer    trace.Tracer

	embedder   *query.Embedder
	retriever  *search.Retriever
	classifier *classify.Classifier
	prompts    *prompt.Builder
	struggle   *struggle.Detector
}

// NewChatbotService wires the retrieval components around the given backends.
// ragLogger receives per-request retrieval traces and may be nil.
func NewChatbotService(
	chunkStore ChunkStore,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	caches *cache.Service,
	limiter *ratelimit.Limiter,
	config ChatbotConfig,
	appLogger logger.ILogger,
	ragLogger rag.Logger,
) IChatbotService {
	ragLogger = rag.OrNop(ragLogger)
	embedder := query.NewEmbedder(embeddingProvider, caches, ragLogger)

	s := &chatbotService{
		store:     chunkStore,
		llm:       llmProvider,
		caches:    caches,
		limiter:   limiter,
		config:    config,
		logger:    appLogger,
		ragLogger: ragLogger,
		tracer:    otel.Tracer("chatbot-service"),

		embedder:   embedder,
		retriever:  search.NewRetriever(chunkStore, embedder, config.Search, ragLogger),
		classifier: classify.NewClassifier(chunkStore, config.Classify, ragLogger),
		prompts:    prompt.NewBuilder(config.Persona),
		struggle:   struggle.NewDetector(embedder, ragLogger),
	}
	if v, ok := llmProvider.(llm.VisionAnalyzer); ok {
		s.vision = v
	}
	if v, ok := llmProvider.(llm.KeyVerifier); ok {
		s.verifier = v
	}
	return s
}

func (s *chatbotService) callOptions(apiKey, model string, extra ...llm.Option) []llm.Option {
	opts := []llm.Option{llm.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, llm.WithAPIKey(apiKey))
	}
	if s.config.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(s.config.MaxTokens))
	}
	if s.config.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(s.config.Temperature))
	}
	return append(opts, extra...)
}

func isCapacity(err error) bool {
	return errors.Is(err, llm.ErrCapacityExceeded)
}

// failure maps a model error to the answer shown to the learner.
func failure(err error) *store.RAGResponse {
	switch {
	case errors.Is(err, llm.ErrAuthentication):
		return &store.RAGResponse{Message: response.InvalidKey(), ResponseType: store.ResponseError}
	case isCapacity(err):
		return &store.RAGResponse{Message: response.CapacityExhausted(), ResponseType: store.ResponseRateLimited}
	default:
		return &store.RAGResponse{Message: fmt.Sprintf("Error generating response: %v", err), ResponseType: store.ResponseError}
	}
}

// Ask runs the pipeline and waits for the full model answer.
func (s *chatbotService) Ask(ctx context.Context, request *dto.ChatRequest) (*dto.ChatResponse, error) {
	t, early, err := s.prepare(ctx, request)
	if err != nil {
		return nil, err
	}
	if early != nil {
		return dto.NewChatResponse(early, early.ShowReferences, s.config.CommunityURL), nil
	}

	ctx, span := s.tracer.Start(ctx, "chatbot.generate")
	defer span.End()

	result, err := fallback.Try(ctx, s.config.Models, func(ctx context.Context, model string) (*llm.ChatResult, error) {
		return s.llm.Chat(ctx, t.messages, s.callOptions(request.APIKey, model)...)
	}, isCapacity)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("CHATBOT", "Model call failed", map[string]interface{}{
			"correlation_id": t.id,
			"error":          err.Error(),
		})
		return dto.NewChatResponse(failure(err), false, s.config.CommunityURL), nil
	}
	span.SetAttributes(attribute.String("llm.model", result.Model), attribute.Int("llm.tokens", result.TokensUsed))

	s.limiter.RecordUsage(result.TokensUsed)

	tokens := result.TokensUsed
	answer := &store.RAGResponse{
		Message:        reference.Linkify(result.Content, t.chunks, request.LectureID),
		References:     reference.Build(t.chunks, request.LectureID),
		ResponseType:   store.ResponseInScope,
		ShowReferences: reference.ShouldDisplay(t.chunks),
		TokensUsed:     &tokens,
	}
	if strings.TrimSpace(result.Content) != "" {
		s.caches.Responses.Store(t.rawVector, answer, request.CurrentLectureOrder, request.CourseTitle)
	}

	s.ragLogger.Info("CHATBOT", "Answer generated", map[string]interface{}{
		"correlation_id": t.id,
		"model":          result.Model,
		"tokens":         tokens,
		"references":     len(answer.References),
	})
	return dto.NewChatResponse(answer, answer.ShowReferences, s.config.CommunityURL), nil
}

func (s *chatbotService) RateStatus() ratelimit.Info {
	return s.limiter.Snapshot()
}

func (s *chatbotService) CacheStats() cache.Stats {
	return s.caches.Stats()
}

func (s *chatbotService) Health(ctx context.Context) *dto.HealthResponse {
	up := s.store.Ping(ctx) == nil
	status := "ok"
	if !up {
		status = "degraded"
	}
	return &dto.HealthResponse{
		Status:          status,
		RagAvailable:    true,
		VectorStoreUp:   up,
		EmbeddingModel:  s.config.EmbeddingProvider,
		SemanticEntries: s.caches.Responses.Len(),
	}
}

func (s *chatbotService) VerifyAPIKey(ctx context.Context, apiKey string) *dto.VerifyKeyResponse {
	if s.verifier == nil {
		return &dto.VerifyKeyResponse{OK: false, Message: "Key verification is not supported by the configured provider"}
	}

	err := s.verifier.VerifyKey(ctx, apiKey)
	switch {
	case err == nil:
		return &dto.VerifyKeyResponse{OK: true, Message: "API key verified successfully"}
	case errors.Is(err, llm.ErrAuthentication):
		return &dto.VerifyKeyResponse{OK: false, Message: "Invalid API key"}
	case isCapacity(err):
		return &dto.VerifyKeyResponse{OK: false, Message: "Rate limit exceeded. Please try again later."}
	default:
		return &dto.VerifyKeyResponse{OK: false, Message: fmt.Sprintf("Verification failed: %v", err)}
	}
}
