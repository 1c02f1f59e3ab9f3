package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

const localMotionRequest = "motion_request"

type MotionHandler struct {
	motionSvc MotionServiceInterface
	upstream  UpstreamStatusInterface
}

func NewMotionHandler(motionSvc MotionServiceInterface, upstream UpstreamStatusInterface) *MotionHandler {
	return &MotionHandler{motionSvc: motionSvc, upstream: upstream}
}

func (h *MotionHandler) ValidateBody(c *fiber.Ctx) error {
	if !h.upstream.Ready() {
		return shared.NewConfigError("Server is missing GEMINI_API_KEY.")
	}

	var req dto.MotionSpecRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid JSON request body.")
	}

	req.StyleText = strings.TrimSpace(req.StyleText)
	req.ActionText = strings.TrimSpace(req.ActionText)

	if err := req.Validate(); err != nil {
		return shared.NewValidationError(err, dto.FormatValidationErrors(err))
	}

	c.Locals(localMotionRequest, req)
	return c.Next()
}

// @Summary Generate a motion spec
// @Description Generates a validated motion spec plus a derived summary
// @Tags generation
// @Accept  json
// @Produce json
// @Param motionSpecRequest body dto.MotionSpecRequest true "Style and action description"
// @Success 200 {object} dto.MotionSpecResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /api/v1/motion-spec [post]
func (h *MotionHandler) Generate(c *fiber.Ctx) error {
	req := c.Locals(localMotionRequest).(dto.MotionSpecRequest)

	resp, err := h.motionSvc.Generate(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}
