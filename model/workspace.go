package model

import "time"

// Document is one workspace storage row: a whole JSON blob per key.
type Document struct {
	Key       string    `json:"key" gorm:"primaryKey;type:text;not null"`
	Value     []byte    `json:"value" gorm:"type:blob;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

type Project struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	CreatedAt      string   `json:"createdAt"`
	UpdatedAt      string   `json:"updatedAt"`
	SavedOutputIDs []string `json:"savedOutputIds"`
}

type SavedOutput struct {
	ID         string      `json:"id"`
	CreatedAt  string      `json:"createdAt"`
	UpdatedAt  string      `json:"updatedAt"`
	Summary    string      `json:"summary"`
	StyleText  string      `json:"styleText"`
	ActionText string      `json:"actionText"`
	MotionSpec *MotionSpec `json:"motionSpec"`
}

// ShareRecord is an immutable snapshot of a saved output addressable by a
// short random token. Lookup by id only, no listing.
type ShareRecord struct {
	ID        string      `json:"id"`
	CreatedAt string      `json:"createdAt"`
	Output    SavedOutput `json:"output"`
}

type RecentGeneration struct {
	ID         string      `json:"id"`
	CreatedAt  string      `json:"createdAt"`
	Summary    string      `json:"summary"`
	StyleText  string      `json:"styleText"`
	ActionText string      `json:"actionText"`
	MotionSpec *MotionSpec `json:"motionSpec"`
}

type AnalyticsEvent struct {
	ID           string `json:"id"`
	CreatedAt    string `json:"createdAt"`
	ExportTimeMs int    `json:"exportTimeMs"`
}

// AnalyticsState is the stored analytics document.
type AnalyticsState struct {
	GenerationEvents []AnalyticsEvent `json:"generationEvents"`
}

type ChatMessage struct {
	ID        string `json:"id" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=user assistant"`
	Content   string `json:"content" validate:"required"`
	CreatedAt string `json:"createdAt" validate:"required"`
}
