package handlers

import (
	"context"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/model"
)

// UpstreamStatusInterface answers whether the upstream credential is
// configured. Generation handlers fail fast with a 500 when it is not.
type UpstreamStatusInterface interface {
	Ready() bool
}

type ChatServiceInterface interface {
	Reply(ctx context.Context, req dto.ChatRequest) (string, error)
}

type MotionServiceInterface interface {
	Generate(ctx context.Context, req dto.MotionSpecRequest) (*dto.MotionSpecResponse, error)
}

type SpeechServiceInterface interface {
	Synthesize(ctx context.Context, req dto.SpeechRequest) (*dto.SpeechResponse, error)
}

type WorkspaceServiceInterface interface {
	Projects() ([]model.Project, error)
	CreateProject(name string) (*model.Project, error)
	RenameProject(projectID, name string) (*model.Project, error)
	DeleteProject(projectID string) error
	ActiveProjectID() (string, error)
	SetActiveProject(projectID string) error
	ActiveProject() (*model.Project, error)

	SavedOutputs() ([]model.SavedOutput, error)
	SavedOutput(outputID string) (*model.SavedOutput, error)
	SaveOutput(req dto.SaveOutputRequest) (*model.SavedOutput, error)
	ProjectOutputs(projectID string) ([]model.SavedOutput, error)

	CreateShare(outputID string) (*model.ShareRecord, error)
	Share(shareID string) (*model.ShareRecord, error)

	PushRecentGeneration(summary, styleText, actionText string, spec *model.MotionSpec) (*model.RecentGeneration, error)
	RecentGenerations(limit int) ([]model.RecentGeneration, error)

	RecordGenerationAnalytics(exportTimeMs int) error
	AnalyticsSummary() (*dto.AnalyticsSummaryResponse, error)

	TourCompleted() (bool, error)
	SetTourCompleted() error
	SoundEnabled() (bool, error)
	SetSoundEnabled(enabled bool) error

	ChatHistory() ([]model.ChatMessage, error)
	SaveChatHistory(messages []model.ChatMessage) error
	ClearChatHistory() error
}
