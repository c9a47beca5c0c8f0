package service

import (
	"context"
	"strings"

	"course-buddy-be/internal/dto"
	"course-buddy-be/pkg/llm"
	"course-buddy-be/pkg/llm/fallback"
	"course-buddy-be/pkg/rag/reference"
	"course-buddy-be/pkg/store"
)

// eventSink drops events once the consumer has gone away.
type eventSink struct {
	ctx context.Context
	ch  chan<- dto.StreamEvent
}

func (e eventSink) send(ev dto.StreamEvent) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// finish emits a whole message followed by its done event.
func (e eventSink) finish(r *store.RAGResponse) {
	if r.ResponseType == store.ResponseError {
		if e.send(dto.ErrorEvent(r.Message)) {
			e.send(dto.DoneEvent(store.ResponseError, nil, false, false))
		}
		return
	}
	if e.send(dto.TokenEvent(r.Message)) {
		e.send(dto.DoneEvent(r.ResponseType, nil, false, false))
	}
}

func (s *chatbotService) AskStream(ctx context.Context, request *dto.ChatRequest) <-chan dto.StreamEvent {
	ch := make(chan dto.StreamEvent, 16)

	go func() {
		defer close(ch)
		sink := eventSink{ctx: ctx, ch: ch}

		t, early, err := s.prepare(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("CHATBOT", "Stream pipeline failed", map[string]interface{}{"error": err.Error()})
			sink.finish(&store.RAGResponse{Message: "Error: " + err.Error(), ResponseType: store.ResponseError})
			return
		}

		if early != nil {
			if early.CacheHit {
				s.replay(sink, early)
				return
			}
			sink.finish(early)
			return
		}

		s.generate(ctx, sink, request, t)
	}()

	return ch
}

// replay streams a cached answer word by word so it renders like a live one.
func (s *chatbotService) replay(sink eventSink, cached *store.RAGResponse) {
	for _, word := range strings.Split(cached.Message, " ") {
		if !sink.send(dto.TokenEvent(word + " ")) {
			return
		}
	}
	sink.send(dto.DoneEvent(cached.ResponseType, cached.References, true, cached.ShowReferences))
}

func (s *chatbotService) generate(ctx context.Context, sink eventSink, request *dto.ChatRequest, t *turn) {
	ctx, span := s.tracer.Start(ctx, "chatbot.stream")
	defer span.End()

	stream, err := fallback.Try(ctx, s.config.Models, func(ctx context.Context, model string) (llm.TokenStream, error) {
		return s.llm.Stream(ctx, t.messages, s.callOptions(request.APIKey, model)...)
	}, isCapacity)
	if err != nil {
		span.RecordError(err)
		if ctx.Err() == nil {
			s.logger.Error("CHATBOT", "Model stream failed to open", map[string]interface{}{
				"correlation_id": t.id,
				"error":          err.Error(),
			})
			sink.finish(failure(err))
		}
		return
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		token := stream.Token()
		full.WriteString(token)
		if !sink.send(dto.TokenEvent(token)) {
			s.ragLogger.Info("CHATBOT", "Client disconnected mid-stream", map[string]interface{}{"correlation_id": t.id})
			return
		}
	}
	if err := stream.Err(); err != nil {
		span.RecordError(err)
		if ctx.Err() == nil {
			sink.finish(&store.RAGResponse{Message: err.Error(), ResponseType: store.ResponseError})
		}
		return
	}

	if usage, ok := stream.(llm.UsageReporter); ok {
		s.limiter.RecordUsage(usage.TokensUsed())
	}

	refs := reference.Build(t.chunks, request.LectureID)
	show := reference.ShouldDisplay(t.chunks)

	// The answer is complete here, so it is cached even if the client
	// leaves before the done event.
	if text := full.String(); strings.TrimSpace(text) != "" {
		s.caches.Responses.Store(t.rawVector, &store.RAGResponse{
			Message:        text,
			References:     refs,
			ResponseType:   store.ResponseInScope,
			ShowReferences: show,
		}, request.CurrentLectureOrder, request.CourseTitle)
	}

	sink.send(dto.DoneEvent(store.ResponseInScope, refs, false, show))
}
