package service

import (
	"context"
	"errors"
	"fmt"

	"course-buddy-be/internal/dto"
	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/llm/fallback"
	"course-buddy-be/pkg/rag/classify"
	"course-buddy-be/pkg/rag/intent"
	"course-buddy-be/pkg/rag/prompt"
	"course-buddy-be/pkg/rag/query"
	"course-buddy-be/pkg/rag/response"
	"course-buddy-be/pkg/rag/search"
	"course-buddy-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// turn is a question that passed every gate and is ready for the model.
type turn struct {
	id        string
	rawVector []float32
	chunks    []store.ScoredChunk
	messages  []llm.Message
}

// prepare runs everything before the model call. Exactly one of turn or
// early is non-nil on success; early is a finished answer (cache hit,
// throttled, off topic or future topic).
func (s *chatbotService) prepare(ctx context.Context, req *dto.ChatRequest) (*turn, *store.RAGResponse, error) {
	id := uuid.NewString()[:8]
	ctx, span := s.tracer.Start(ctx, "chatbot.prepare")
	defer span.End()
	span.SetAttributes(
		attribute.String("correlation_id", id),
		attribute.String("course", req.CourseTitle),
		attribute.String("lecture_id", req.LectureID),
	)

	s.ragLogger.Info("CHATBOT", "Question received", map[string]interface{}{
		"correlation_id": id,
		"lecture_id":     req.LectureID,
		"course":         req.CourseTitle,
		"question":       truncate(req.Message, 60),
	})

	chapterTitle, lectureTitle := s.lectureTitles(ctx, req.LectureID)

	queryVector, err := s.embedder.Embed(ctx, query.Enrich(req.Message, chapterTitle, lectureTitle))
	if err != nil {
		return nil, nil, err
	}
	// The enriched prefix dominates the vector, so the answer cache is keyed
	// on the raw question.
	rawVector, err := s.embedder.Embed(ctx, req.Message)
	if err != nil {
		return nil, nil, err
	}

	if cached, ok := s.caches.Responses.Match(rawVector, req.CurrentLectureOrder, req.CourseTitle); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		s.ragLogger.Info("CHATBOT", "Semantic cache hit", map[string]interface{}{"correlation_id": id})
		return nil, cached, nil
	}

	status, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !status.Allowed {
		s.logger.Warn("CHATBOT", "Request throttled", map[string]interface{}{
			"correlation_id": id,
			"state":          string(status.State),
		})
		return nil, &store.RAGResponse{Message: status.Message, ResponseType: store.ResponseRateLimited}, nil
	}

	in := intent.Detect(req.Message)
	result, err := s.retriever.Retrieve(ctx, search.Request{
		Question:      req.Message,
		QueryVector:   queryVector,
		CourseTitle:   req.CourseTitle,
		LectureID:     req.LectureID,
		FrontendOrder: req.CurrentLectureOrder,
		Intent:        in,
		CorrelationID: id,
	})
	if err != nil {
		return nil, nil, err
	}

	decision, err := s.classifier.Classify(ctx, result.Chunks, queryVector, req.CourseTitle, in)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(
		attribute.String("intent", string(in)),
		attribute.String("retrieval_path", string(result.Path)),
		attribute.String("response_type", string(decision.Type)),
	)

	switch decision.Type {
	case store.ResponseOffTopic:
		return nil, &store.RAGResponse{Message: response.OffTopic(req.CourseTitle), ResponseType: store.ResponseOffTopic}, nil
	case store.ResponseFutureTopic:
		return nil, &store.RAGResponse{Message: response.FutureTopic(req.CourseTitle, decision.FutureHint), ResponseType: store.ResponseFutureTopic}, nil
	}

	return s.compose(ctx, id, req, decision, rawVector, lectureTitle)
}

func (s *chatbotService) compose(ctx context.Context, id string, req *dto.ChatRequest, decision *classify.Decision, rawVector []float32, fallbackLecture string) (*turn, *store.RAGResponse, error) {
	chapter, lecture := currentTitles(decision.Chunks, req.LectureID)
	if lecture == "" {
		lecture = fallbackLecture
	}

	contextString := prompt.Context(decision.Chunks, prompt.LectureContext{
		CourseTitle:      req.CourseTitle,
		ChapterTitle:     chapter,
		LectureTitle:     lecture,
		CurrentLectureID: req.LectureID,
	})

	hasScreenshot := false
	if req.ImageBase64 != "" {
		analysis, err := s.analyzeScreenshot(ctx, req)
		if err != nil {
			return nil, failure(err), nil
		}
		contextString = prompt.WithScreenshot(contextString, analysis)
		hasScreenshot = true
	}

	history := req.LLMHistory()
	opts := prompt.Options{
		CourseTitle:   req.CourseTitle,
		LectureTitle:  lecture,
		TeachingMode:  req.TeachingMode,
		ResponseStyle: req.ResponseStyle,
		HintStage:     req.HintStage,
		Struggling:    s.struggle.Struggling(ctx, history, req.Message),
		HasScreenshot: hasScreenshot,
	}
	if opts.Struggling {
		s.ragLogger.Info("CHATBOT", "Learner appears stuck on a topic", map[string]interface{}{"correlation_id": id})
	}

	return &turn{
		id:        id,
		rawVector: rawVector,
		chunks:    decision.Chunks,
		messages:  s.prompts.Messages(opts, contextString, history, req.Message),
	}, nil, nil
}

// lectureTitles looks up titles for query enrichment. Failures only cost
// enrichment quality, so they are logged and ignored.
func (s *chatbotService) lectureTitles(ctx context.Context, lectureID string) (string, string) {
	lecture, found, err := s.store.Lecture(ctx, lectureID)
	if err != nil {
		s.logger.Warn("CHATBOT", "Lecture lookup failed", map[string]interface{}{
			"lecture_id": lectureID,
			"error":      err.Error(),
		})
		return "", ""
	}
	if !found {
		return "", ""
	}
	return lecture.ChapterTitle, lecture.LectureTitle
}

// currentTitles prefers the watched lecture's titles and falls back to the top chunk.
func currentTitles(chunks []store.ScoredChunk, lectureID string) (string, string) {
	for _, c := range chunks {
		if c.Metadata.LectureID == lectureID {
			return c.Metadata.ChapterTitle, c.Metadata.LectureTitle
		}
	}
	if len(chunks) > 0 {
		return chunks[0].Metadata.ChapterTitle, chunks[0].Metadata.LectureTitle
	}
	return "", ""
}

// analyzeScreenshot describes the uploaded image. Only an authentication
// failure is returned; other failures become a note in the context.
func (s *chatbotService) analyzeScreenshot(ctx context.Context, req *dto.ChatRequest) (string, error) {
	if s.vision == nil {
		return "(Screenshot could not be analyzed: vision is not available)", nil
	}

	ctx, span := s.tracer.Start(ctx, "chatbot.vision")
	defer span.End()

	notAuth := func(err error) bool { return !errors.Is(err, llm.ErrAuthentication) }
	desc, err := fallback.Try(ctx, s.config.VisionModels, func(ctx context.Context, model string) (string, error) {
		opts := []llm.Option{llm.WithModel(model)}
		if req.APIKey != "" {
			opts = append(opts, llm.WithAPIKey(req.APIKey))
		}
		return s.vision.DescribeImage(ctx, req.ImageBase64, req.Message, opts...)
	}, notAuth)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, llm.ErrAuthentication) {
			return "", err
		}
		s.logger.Warn("CHATBOT", "Screenshot analysis failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("(Screenshot could not be analyzed: %s)", truncate(err.Error(), 100)), nil
	}
	return desc, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
