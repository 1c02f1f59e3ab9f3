package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

const localSpeechRequest = "speech_request"

type SpeechHandler struct {
	speechSvc SpeechServiceInterface
	upstream  UpstreamStatusInterface
}

func NewSpeechHandler(speechSvc SpeechServiceInterface, upstream UpstreamStatusInterface) *SpeechHandler {
	return &SpeechHandler{speechSvc: speechSvc, upstream: upstream}
}

func (h *SpeechHandler) ValidateBody(c *fiber.Ctx) error {
	if !h.upstream.Ready() {
		return shared.NewConfigError("Server is missing GEMINI_API_KEY.")
	}

	var req dto.SpeechRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid JSON request body.")
	}

	req.Text = strings.TrimSpace(req.Text)
	req.Style = strings.TrimSpace(req.Style)

	if err := req.Validate(); err != nil {
		return shared.NewValidationError(err, dto.FormatValidationErrors(err))
	}

	c.Locals(localSpeechRequest, req)
	return c.Next()
}

// @Summary Synthesize speech
// @Description Converts assistant text into inline base64 audio
// @Tags generation
// @Accept  json
// @Produce json
// @Param speechRequest body dto.SpeechRequest true "Text, voice and optional style"
// @Success 200 {object} dto.SpeechResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/speech [post]
func (h *SpeechHandler) Synthesize(c *fiber.Ctx) error {
	req := c.Locals(localSpeechRequest).(dto.SpeechRequest)

	resp, err := h.speechSvc.Synthesize(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
