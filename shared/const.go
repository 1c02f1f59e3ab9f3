package shared

const (
	// Rate limited endpoint types. Each owns an independent bucket namespace.
	EndpointChat       = "chat"
	EndpointMotionSpec = "motion_spec"
	EndpointSpeech     = "speech"

	PageLanding = "landing"
	PageDemo    = "demo"

	EngineUnity   = "unity"
	EngineUnreal  = "unreal"
	EngineBlender = "blender"

	RigHumanoid = "humanoid"

	ExportFormatFBX = "FBX"
	ExportFormatBVH = "BVH"

	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleModel     = "model"

	DefaultVoice = "Puck"
)

// Workspace document keys. These mirror the browser build's local storage
// layout so exported workspaces stay importable.
const (
	KeyProjects          = "starks-projects-v1"
	KeySavedOutputs      = "starks-saved-outputs-v1"
	KeyShares            = "starks-shares-v1"
	KeyActiveProject     = "starks-active-project-v1"
	KeyAnalytics         = "starks-analytics-v1"
	KeyTourCompleted     = "starks-demo-tour-completed-v1"
	KeyRecentGenerations = "starks-recent-generations-v1"
	KeyChatHistory       = "starks-chat-history-v1"
	KeySoundPreference   = "starks-sound-v1"
)

const (
	MaxConversationChars = 10_000
	MaxChatMessages      = 30
	MaxChatHistory       = 60
	MaxStoredMessageLen  = 4000
	MaxRecentGenerations = 20
	MaxAnalyticsEvents   = 200
	MaxProjectNameLen    = 48
)
