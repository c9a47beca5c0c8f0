package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"course-buddy-be/internal/dto"
	"course-buddy-be/internal/pkg/serverutils"
	"course-buddy-be/internal/service"
	"course-buddy-be/pkg/rag"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	ChatStream(ctx *fiber.Ctx) error
	RateStatus(ctx *fiber.Ctx) error
	CacheStats(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
	VerifyKey(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{
		chatbotService: chatbotService,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/v2")
	h.Post("chat", c.Chat)
	h.Post("chat/stream", c.ChatStream)
	h.Get("rate-status", c.RateStatus)
	h.Get("cache-stats", c.CacheStats)
	h.Get("health", c.Health)

	r.Post("/llm/verify", c.VerifyKey)
}

func parseChatRequest(ctx *fiber.Ctx) (*dto.ChatRequest, error) {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, err
	}
	req.Normalize()

	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	return &req, nil
}

// upstream turns backend outages into 503 so clients can retry.
func upstream(err error) error {
	if errors.Is(err, rag.ErrUpstreamUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Service temporarily unavailable")
	}
	return err
}

func (c *chatbotController) Chat(ctx *fiber.Ctx) error {
	req, err := parseChatRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.Ask(ctx.UserContext(), req)
	if err != nil {
		return upstream(err)
	}

	return ctx.JSON(res)
}

func (c *chatbotController) ChatStream(ctx *fiber.Ctx) error {
	req, err := parseChatRequest(ctx)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// fasthttp does not cancel the request context on disconnect, so a
	// failed flush is the signal to stop generating.
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.UserContext()))
	events := c.chatbotService.AskStream(streamCtx, req)

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for ev := range events {
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			if err := w.Flush(); err != nil {
				return
			}
		}
	})
	return nil
}

func (c *chatbotController) RateStatus(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatbotService.RateStatus())
}

func (c *chatbotController) CacheStats(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatbotService.CacheStats())
}

func (c *chatbotController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.chatbotService.Health(ctx.UserContext()))
}

func (c *chatbotController) VerifyKey(ctx *fiber.Ctx) error {
	var req dto.VerifyKeyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(c.chatbotService.VerifyAPIKey(ctx.UserContext(), req.APIKey))
}
