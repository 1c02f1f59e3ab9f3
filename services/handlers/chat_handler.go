package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

const localChatRequest = "chat_request"

type ChatHandler struct {
	chatSvc  ChatServiceInterface
	upstream UpstreamStatusInterface
}

func NewChatHandler(chatSvc ChatServiceInterface, upstream UpstreamStatusInterface) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc, upstream: upstream}
}

// ValidateBody runs before the rate limiter so malformed requests never
// consume quota. The parsed request is handed forward through locals.
func (h *ChatHandler) ValidateBody(c *fiber.Ctx) error {
	if !h.upstream.Ready() {
		return shared.NewConfigError("Server is missing GEMINI_API_KEY.")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid JSON request body.")
	}

	for i := range req.Messages {
		req.Messages[i].Content = strings.TrimSpace(req.Messages[i].Content)
	}

	if err := req.Validate(); err != nil {
		return shared.NewValidationError(err, dto.FormatValidationErrors(err))
	}

	c.Locals(localChatRequest, req)
	return c.Next()
}

// @Summary Chat with the Starks assistant
// @Description Runs one assistant turn over the supplied conversation
// @Tags generation
// @Accept  json
// @Produce json
// @Param chatRequest body dto.ChatRequest true "Conversation so far"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	req := c.Locals(localChatRequest).(dto.ChatRequest)

	reply, err := h.chatSvc.Reply(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(dto.ChatResponse{Reply: reply})
}
