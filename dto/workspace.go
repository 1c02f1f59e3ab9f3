package dto

import "github.com/starks-ai/motion_api/model"

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=48"`
}

func (c CreateProjectRequest) Validate() error {
	return GetValidator().Struct(c)
}

type RenameProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=48"`
}

func (r RenameProjectRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SetActiveProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

func (s SetActiveProjectRequest) Validate() error {
	return GetValidator().Struct(s)
}

type ActiveProjectResponse struct {
	ProjectID string         `json:"projectId,omitempty"`
	Project   *model.Project `json:"project,omitempty"`
}

type SaveOutputRequest struct {
	// ID re-saves an existing output in place when set.
	ID         string            `json:"id,omitempty"`
	Summary    string            `json:"summary" validate:"required"`
	StyleText  string            `json:"styleText" validate:"required,max=220"`
	ActionText string            `json:"actionText" validate:"required,max=220"`
	MotionSpec *model.MotionSpec `json:"motionSpec" validate:"required"`
	// ProjectID overrides the active project as the attach target.
	ProjectID string `json:"projectId,omitempty"`
}

func (s SaveOutputRequest) Validate() error {
	if err := GetValidator().Struct(s); err != nil {
		return err
	}
	return s.MotionSpec.Validate()
}

type CreateShareRequest struct {
	OutputID string `json:"outputId" validate:"required"`
}

func (c CreateShareRequest) Validate() error {
	return GetValidator().Struct(c)
}

type PushRecentGenerationRequest struct {
	Summary    string            `json:"summary" validate:"required"`
	StyleText  string            `json:"styleText" validate:"required,max=220"`
	ActionText string            `json:"actionText" validate:"required,max=220"`
	MotionSpec *model.MotionSpec `json:"motionSpec" validate:"required"`
}

func (p PushRecentGenerationRequest) Validate() error {
	if err := GetValidator().Struct(p); err != nil {
		return err
	}
	return p.MotionSpec.Validate()
}

type RecordAnalyticsRequest struct {
	ExportTimeMs int `json:"exportTimeMs" validate:"min=0"`
}

func (r RecordAnalyticsRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AnalyticsSummaryResponse struct {
	GenerationsToday int     `json:"generationsToday"`
	AvgExportSeconds float64 `json:"avgExportSeconds"`
	ActiveProjects   int     `json:"activeProjects"`
}

type TourStateResponse struct {
	Completed bool `json:"completed"`
}

type SoundPreferenceRequest struct {
	Enabled bool `json:"enabled"`
}

type SoundPreferenceResponse struct {
	Enabled bool `json:"enabled"`
}

type SaveChatHistoryRequest struct {
	Messages []model.ChatMessage `json:"messages" validate:"required,dive"`
}

func (s SaveChatHistoryRequest) Validate() error {
	return GetValidator().Struct(s)
}
