package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

// WorkspaceHandler exposes the workspace store over REST. Responses use the
// enveloped format; the store itself guarantees one change broadcast per
// successful mutation.
type WorkspaceHandler struct {
	workspaceSvc WorkspaceServiceInterface
}

func NewWorkspaceHandler(workspaceSvc WorkspaceServiceInterface) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceSvc: workspaceSvc}
}

// ==================== PROJECTS ====================

// @Summary List projects
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.Project}
// @Router /api/v1/workspace/projects [get]
func (h *WorkspaceHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := h.workspaceSvc.Projects()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, projects)
}

// @Summary Create a project
// @Tags workspace
// @Accept json
// @Produce json
// @Param createProjectRequest body dto.CreateProjectRequest true "Project name"
// @Success 201 {object} shared.Response{data=model.Project}
// @Router /api/v1/workspace/projects [post]
func (h *WorkspaceHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	project, err := h.workspaceSvc.CreateProject(req.Name)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, project)
}

// @Summary Rename a project
// @Tags workspace
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param renameProjectRequest body dto.RenameProjectRequest true "New name"
// @Success 200 {object} shared.Response{data=model.Project}
// @Router /api/v1/workspace/projects/{projectId} [put]
func (h *WorkspaceHandler) RenameProject(c *fiber.Ctx) error {
	var req dto.RenameProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	project, err := h.workspaceSvc.RenameProject(c.Params("projectId"), req.Name)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, project)
}

// @Summary Delete a project
// @Tags workspace
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/projects/{projectId} [delete]
func (h *WorkspaceHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.workspaceSvc.DeleteProject(c.Params("projectId")); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary List a project's saved outputs
// @Tags workspace
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} shared.Response{data=[]model.SavedOutput}
// @Router /api/v1/workspace/projects/{projectId}/outputs [get]
func (h *WorkspaceHandler) ProjectOutputs(c *fiber.Ctx) error {
	outputs, err := h.workspaceSvc.ProjectOutputs(c.Params("projectId"))
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, outputs)
}

// @Summary Get the active project
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=dto.ActiveProjectResponse}
// @Router /api/v1/workspace/active-project [get]
func (h *WorkspaceHandler) GetActiveProject(c *fiber.Ctx) error {
	project, err := h.workspaceSvc.ActiveProject()
	if err != nil {
		return err
	}

	resp := dto.ActiveProjectResponse{}
	if project != nil {
		resp.ProjectID = project.ID
		resp.Project = project
	}
	return shared.ResponseOK(c, resp)
}

// @Summary Set the active project
// @Tags workspace
// @Accept json
// @Produce json
// @Param setActiveProjectRequest body dto.SetActiveProjectRequest true "Project ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/active-project [put]
func (h *WorkspaceHandler) SetActiveProject(c *fiber.Ctx) error {
	var req dto.SetActiveProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.workspaceSvc.SetActiveProject(req.ProjectID); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== SAVED OUTPUTS ====================

// @Summary List saved outputs
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.SavedOutput}
// @Router /api/v1/workspace/outputs [get]
func (h *WorkspaceHandler) ListOutputs(c *fiber.Ctx) error {
	outputs, err := h.workspaceSvc.SavedOutputs()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, outputs)
}

// @Summary Save an output
// @Description Creates or re-saves an output and attaches it to a project
// @Tags workspace
// @Accept json
// @Produce json
// @Param saveOutputRequest body dto.SaveOutputRequest true "Output payload"
// @Success 201 {object} shared.Response{data=model.SavedOutput}
// @Router /api/v1/workspace/outputs [post]
func (h *WorkspaceHandler) SaveOutput(c *fiber.Ctx) error {
	var req dto.SaveOutputRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	output, err := h.workspaceSvc.SaveOutput(req)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, output)
}

// @Summary Get one saved output
// @Tags workspace
// @Produce json
// @Param outputId path string true "Output ID"
// @Success 200 {object} shared.Response{data=model.SavedOutput}
// @Router /api/v1/workspace/outputs/{outputId} [get]
func (h *WorkspaceHandler) GetOutput(c *fiber.Ctx) error {
	output, err := h.workspaceSvc.SavedOutput(c.Params("outputId"))
	if err != nil {
		return err
	}
	if output == nil {
		return shared.ResponseNotFound(c)
	}
	return shared.ResponseOK(c, output)
}

// ==================== SHARES ====================

// @Summary Create a share record
// @Description Snapshots a saved output under a short immutable token
// @Tags workspace
// @Accept json
// @Produce json
// @Param createShareRequest body dto.CreateShareRequest true "Output to share"
// @Success 201 {object} shared.Response{data=model.ShareRecord}
// @Router /api/v1/workspace/shares [post]
func (h *WorkspaceHandler) CreateShare(c *fiber.Ctx) error {
	var req dto.CreateShareRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	record, err := h.workspaceSvc.CreateShare(req.OutputID)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, record)
}

// @Summary Look up a share record
// @Tags workspace
// @Produce json
// @Param shareId path string true "Share token"
// @Success 200 {object} shared.Response{data=model.ShareRecord}
// @Router /api/v1/shares/{shareId} [get]
func (h *WorkspaceHandler) GetShare(c *fiber.Ctx) error {
	record, err := h.workspaceSvc.Share(c.Params("shareId"))
	if err != nil {
		return err
	}
	if record == nil {
		return shared.ResponseNotFound(c)
	}
	return shared.ResponseOK(c, record)
}

// ==================== RECENT GENERATIONS & ANALYTICS ====================

// @Summary List recent generations
// @Tags workspace
// @Produce json
// @Param limit query int false "Max entries (default 5)"
// @Success 200 {object} shared.Response{data=[]model.RecentGeneration}
// @Router /api/v1/workspace/recent-generations [get]
func (h *WorkspaceHandler) RecentGenerations(c *fiber.Ctx) error {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	recents, err := h.workspaceSvc.RecentGenerations(limit)
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, recents)
}

// @Summary Push a recent generation
// @Description Prepends an entry to the capped recent-generations ring
// @Tags workspace
// @Accept json
// @Produce json
// @Param pushRecentGenerationRequest body dto.PushRecentGenerationRequest true "Generation to record"
// @Success 201 {object} shared.Response{data=model.RecentGeneration}
// @Router /api/v1/workspace/recent-generations [post]
func (h *WorkspaceHandler) PushRecentGeneration(c *fiber.Ctx) error {
	var req dto.PushRecentGenerationRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	generation, err := h.workspaceSvc.PushRecentGeneration(req.Summary, req.StyleText, req.ActionText, req.MotionSpec)
	if err != nil {
		return err
	}
	return shared.ResponseCreated(c, generation)
}

// @Summary Record a generation analytics event
// @Tags workspace
// @Accept json
// @Produce json
// @Param recordAnalyticsRequest body dto.RecordAnalyticsRequest true "Export duration"
// @Success 201 {object} shared.Response
// @Router /api/v1/workspace/analytics/events [post]
func (h *WorkspaceHandler) RecordAnalytics(c *fiber.Ctx) error {
	var req dto.RecordAnalyticsRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.workspaceSvc.RecordGenerationAnalytics(req.ExportTimeMs); err != nil {
		return err
	}
	return shared.ResponseCreated(c, nil)
}

// @Summary Aggregate analytics summary
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=dto.AnalyticsSummaryResponse}
// @Router /api/v1/workspace/analytics/summary [get]
func (h *WorkspaceHandler) AnalyticsSummary(c *fiber.Ctx) error {
	summary, err := h.workspaceSvc.AnalyticsSummary()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, summary)
}

// ==================== TOUR & SOUND ====================

// @Summary Get tour completion state
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=dto.TourStateResponse}
// @Router /api/v1/workspace/tour [get]
func (h *WorkspaceHandler) GetTour(c *fiber.Ctx) error {
	completed, err := h.workspaceSvc.TourCompleted()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, dto.TourStateResponse{Completed: completed})
}

// @Summary Mark the tour completed
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/tour [put]
func (h *WorkspaceHandler) CompleteTour(c *fiber.Ctx) error {
	if err := h.workspaceSvc.SetTourCompleted(); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Get sound preference
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=dto.SoundPreferenceResponse}
// @Router /api/v1/workspace/sound [get]
func (h *WorkspaceHandler) GetSound(c *fiber.Ctx) error {
	enabled, err := h.workspaceSvc.SoundEnabled()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, dto.SoundPreferenceResponse{Enabled: enabled})
}

// @Summary Set sound preference
// @Tags workspace
// @Accept json
// @Produce json
// @Param soundPreferenceRequest body dto.SoundPreferenceRequest true "Sound on/off"
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/sound [put]
func (h *WorkspaceHandler) SetSound(c *fiber.Ctx) error {
	var req dto.SoundPreferenceRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := h.workspaceSvc.SetSoundEnabled(req.Enabled); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// ==================== CHAT HISTORY ====================

// @Summary Get chat history
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.ChatMessage}
// @Router /api/v1/workspace/chat-history [get]
func (h *WorkspaceHandler) GetChatHistory(c *fiber.Ctx) error {
	messages, err := h.workspaceSvc.ChatHistory()
	if err != nil {
		return err
	}
	return shared.ResponseOK(c, messages)
}

// @Summary Replace chat history
// @Tags workspace
// @Accept json
// @Produce json
// @Param saveChatHistoryRequest body dto.SaveChatHistoryRequest true "Messages to keep"
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/chat-history [put]
func (h *WorkspaceHandler) SaveChatHistory(c *fiber.Ctx) error {
	var req dto.SaveChatHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	if err := h.workspaceSvc.SaveChatHistory(req.Messages); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}

// @Summary Clear chat history
// @Tags workspace
// @Produce json
// @Success 200 {object} shared.Response
// @Router /api/v1/workspace/chat-history [delete]
func (h *WorkspaceHandler) ClearChatHistory(c *fiber.Ctx) error {
	if err := h.workspaceSvc.ClearChatHistory(); err != nil {
		return err
	}
	return shared.ResponseOK(c, nil)
}
