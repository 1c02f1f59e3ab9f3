package services

import (
	"crypto/rand"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/model"
	"github.com/starks-ai/motion_api/shared"
)

// WorkspaceService owns all workspace state: projects, saved outputs, shares,
// recent generations, analytics, tour flag, sound preference and chat
// history. Each collection lives under its own document key and is read and
// written as one JSON blob. No other component touches those keys.
//
// Every successful mutation broadcasts exactly one change event; failed
// mutations leave the store untouched and broadcast nothing.
type WorkspaceService struct {
	appContext.DefaultService

	store shared.DocumentStore

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int
}

const WORKSPACE_SVC = "workspace_svc"

func (svc WorkspaceService) Id() string {
	return WORKSPACE_SVC
}

func (svc *WorkspaceService) Configure(ctx *appContext.Context) error {
	svc.subscribers = make(map[int]func())
	return svc.DefaultService.Configure(ctx)
}

func (svc *WorkspaceService) Start() error {
	sqlSvc := svc.Service(SQLITE_SVC).(*SqliteService)
	svc.store = sqlSvc.Documents()
	return nil
}

// ==================== CHANGE NOTIFICATION ====================

// Subscribe registers a callback fired after every successful mutation. The
// returned function unsubscribes. Notification is coarse: one global topic,
// subscribers re-read the collections they care about.
func (svc *WorkspaceService) Subscribe(fn func()) func() {
	svc.subMu.Lock()
	defer svc.subMu.Unlock()

	id := svc.nextSubID
	svc.nextSubID++
	svc.subscribers[id] = fn

	return func() {
		svc.subMu.Lock()
		defer svc.subMu.Unlock()
		delete(svc.subscribers, id)
	}
}

func (svc *WorkspaceService) broadcast() {
	svc.subMu.Lock()
	callbacks := make([]func(), 0, len(svc.subscribers))
	for _, fn := range svc.subscribers {
		callbacks = append(callbacks, fn)
	}
	svc.subMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// ==================== DOCUMENT HELPERS ====================

// readDoc leaves dest at its fallback value when the key is missing or holds
// a blob that no longer parses.
func (svc *WorkspaceService) readDoc(key string, dest interface{}) error {
	raw, err := svc.store.Get(key)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	if err := shared.JSONAPI.Unmarshal(raw, dest); err != nil {
		log.WithError(err).WithField("key", key).Warn("Discarding unreadable workspace document")
	}
	return nil
}

func (svc *WorkspaceService) writeDoc(key string, value interface{}) error {
	raw, err := shared.JSONAPI.Marshal(value)
	if err != nil {
		return err
	}
	return svc.store.Put(key, raw)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ==================== PROJECTS ====================

func (svc *WorkspaceService) Projects() ([]model.Project, error) {
	projects := []model.Project{}
	if err := svc.readDoc(shared.KeyProjects, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject prepends a new project and makes it active.
func (svc *WorkspaceService) CreateProject(name string) (*model.Project, error) {
	trimmed := shared.TruncateRunes(strings.TrimSpace(name), shared.MaxProjectNameLen)
	if trimmed == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("empty project name"), "Project name is required")
	}

	projects, err := svc.Projects()
	if err != nil {
		return nil, err
	}

	now := nowStamp()
	project := model.Project{
		ID:             uuid.NewString(),
		Name:           trimmed,
		CreatedAt:      now,
		UpdatedAt:      now,
		SavedOutputIDs: []string{},
	}

	next := append([]model.Project{project}, projects...)
	if err := svc.writeDoc(shared.KeyProjects, next); err != nil {
		return nil, err
	}
	if err := svc.store.Put(shared.KeyActiveProject, []byte(project.ID)); err != nil {
		return nil, err
	}

	svc.broadcast()
	return &project, nil
}

func (svc *WorkspaceService) RenameProject(projectID, name string) (*model.Project, error) {
	trimmed := shared.TruncateRunes(strings.TrimSpace(name), shared.MaxProjectNameLen)
	if trimmed == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("empty project name"), "Project name is required")
	}

	projects, err := svc.Projects()
	if err != nil {
		return nil, err
	}

	var renamed *model.Project
	for i := range projects {
		if projects[i].ID == projectID {
			projects[i].Name = trimmed
			projects[i].UpdatedAt = nowStamp()
			renamed = &projects[i]
			break
		}
	}
	if renamed == nil {
		return nil, shared.NewAppError(404, fmt.Errorf("project %s not found", projectID), "Project not found")
	}

	if err := svc.writeDoc(shared.KeyProjects, projects); err != nil {
		return nil, err
	}

	svc.broadcast()
	return renamed, nil
}

// DeleteProject removes the project and, when it was active, promotes the
// newest remaining project or clears the pointer.
func (svc *WorkspaceService) DeleteProject(projectID string) error {
	projects, err := svc.Projects()
	if err != nil {
		return err
	}

	next := make([]model.Project, 0, len(projects))
	found := false
	for _, project := range projects {
		if project.ID == projectID {
			found = true
			continue
		}
		next = append(next, project)
	}
	if !found {
		return shared.NewAppError(404, fmt.Errorf("project %s not found", projectID), "Project not found")
	}

	if err := svc.writeDoc(shared.KeyProjects, next); err != nil {
		return err
	}

	activeID, err := svc.ActiveProjectID()
	if err != nil {
		return err
	}
	if activeID == projectID {
		if len(next) > 0 {
			if err := svc.store.Put(shared.KeyActiveProject, []byte(next[0].ID)); err != nil {
				return err
			}
		} else if err := svc.store.Delete(shared.KeyActiveProject); err != nil {
			return err
		}
	}

	svc.broadcast()
	return nil
}

func (svc *WorkspaceService) ActiveProjectID() (string, error) {
	raw, err := svc.store.Get(shared.KeyActiveProject)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (svc *WorkspaceService) SetActiveProject(projectID string) error {
	projects, err := svc.Projects()
	if err != nil {
		return err
	}

	exists := false
	for _, project := range projects {
		if project.ID == projectID {
			exists = true
			break
		}
	}
	if !exists {
		return shared.NewAppError(404, fmt.Errorf("project %s not found", projectID), "Project not found")
	}

	if err := svc.store.Put(shared.KeyActiveProject, []byte(projectID)); err != nil {
		return err
	}

	svc.broadcast()
	return nil
}

func (svc *WorkspaceService) ActiveProject() (*model.Project, error) {
	activeID, err := svc.ActiveProjectID()
	if err != nil || activeID == "" {
		return nil, err
	}

	projects, err := svc.Projects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == activeID {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// ==================== SAVED OUTPUTS ====================

// SavedOutputs returns every saved output, most recently updated first.
func (svc *WorkspaceService) SavedOutputs() ([]model.SavedOutput, error) {
	outputs := []model.SavedOutput{}
	if err := svc.readDoc(shared.KeySavedOutputs, &outputs); err != nil {
		return nil, err
	}

	sort.SliceStable(outputs, func(i, j int) bool {
		return outputs[i].UpdatedAt > outputs[j].UpdatedAt
	})
	return outputs, nil
}

func (svc *WorkspaceService) SavedOutput(outputID string) (*model.SavedOutput, error) {
	outputs, err := svc.SavedOutputs()
	if err != nil {
		return nil, err
	}
	for i := range outputs {
		if outputs[i].ID == outputID {
			return &outputs[i], nil
		}
	}
	return nil, nil
}

func (svc *WorkspaceService) RecentOutputs(limit int) ([]model.SavedOutput, error) {
	outputs, err := svc.SavedOutputs()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(outputs) > limit {
		outputs = outputs[:limit]
	}
	return outputs, nil
}

// SaveOutput creates or re-saves an output and attaches it to the target
// project (explicit id, else the active project). Re-saving the same id
// replaces the output in place, keeping its createdAt.
func (svc *WorkspaceService) SaveOutput(req dto.SaveOutputRequest) (*model.SavedOutput, error) {
	outputs, err := svc.SavedOutputs()
	if err != nil {
		return nil, err
	}

	now := nowStamp()
	outputID := req.ID
	if outputID == "" {
		outputID = uuid.NewString()
	}

	createdAt := now
	rest := make([]model.SavedOutput, 0, len(outputs))
	for _, existing := range outputs {
		if existing.ID == outputID {
			createdAt = existing.CreatedAt
			continue
		}
		rest = append(rest, existing)
	}

	output := model.SavedOutput{
		ID:         outputID,
		CreatedAt:  createdAt,
		UpdatedAt:  now,
		Summary:    req.Summary,
		StyleText:  req.StyleText,
		ActionText: req.ActionText,
		MotionSpec: req.MotionSpec,
	}

	if err := svc.writeDoc(shared.KeySavedOutputs, append([]model.SavedOutput{output}, rest...)); err != nil {
		return nil, err
	}

	targetProjectID := req.ProjectID
	if targetProjectID == "" {
		if targetProjectID, err = svc.ActiveProjectID(); err != nil {
			return nil, err
		}
	}
	if targetProjectID != "" {
		if err := svc.attachOutputToProject(targetProjectID, outputID, now); err != nil {
			return nil, err
		}
	}

	svc.broadcast()
	return &output, nil
}

func (svc *WorkspaceService) attachOutputToProject(projectID, outputID, now string) error {
	projects, err := svc.Projects()
	if err != nil {
		return err
	}

	for i := range projects {
		if projects[i].ID != projectID {
			continue
		}

		for _, existing := range projects[i].SavedOutputIDs {
			if existing == outputID {
				return nil
			}
		}

		projects[i].UpdatedAt = now
		projects[i].SavedOutputIDs = append([]string{outputID}, projects[i].SavedOutputIDs...)
		return svc.writeDoc(shared.KeyProjects, projects)
	}

	return nil
}

// ProjectOutputs resolves a project's saved output ids in order, skipping ids
// whose output no longer exists.
func (svc *WorkspaceService) ProjectOutputs(projectID string) ([]model.SavedOutput, error) {
	projects, err := svc.Projects()
	if err != nil {
		return nil, err
	}

	var project *model.Project
	for i := range projects {
		if projects[i].ID == projectID {
			project = &projects[i]
			break
		}
	}
	if project == nil {
		return []model.SavedOutput{}, nil
	}

	outputs, err := svc.SavedOutputs()
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.SavedOutput, len(outputs))
	for _, output := range outputs {
		byID[output.ID] = output
	}

	resolved := make([]model.SavedOutput, 0, len(project.SavedOutputIDs))
	for _, id := range project.SavedOutputIDs {
		if output, ok := byID[id]; ok {
			resolved = append(resolved, output)
		}
	}
	return resolved, nil
}

// ==================== SHARES ====================

const shareTokenAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newShareToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:8]
	}
	for i, b := range buf {
		buf[i] = shareTokenAlphabet[int(b)%len(shareTokenAlphabet)]
	}
	return string(buf)
}

// CreateShare snapshots a saved output under a fresh short token. Shares are
// immutable and addressable by id only.
func (svc *WorkspaceService) CreateShare(outputID string) (*model.ShareRecord, error) {
	output, err := svc.SavedOutput(outputID)
	if err != nil {
		return nil, err
	}
	if output == nil {
		return nil, shared.NewAppError(404, fmt.Errorf("output %s not found", outputID), "Saved output not found")
	}

	shares := map[string]model.ShareRecord{}
	if err := svc.readDoc(shared.KeyShares, &shares); err != nil {
		return nil, err
	}

	record := model.ShareRecord{
		ID:        newShareToken(),
		CreatedAt: nowStamp(),
		Output:    *output,
	}
	shares[record.ID] = record

	if err := svc.writeDoc(shared.KeyShares, shares); err != nil {
		return nil, err
	}

	svc.broadcast()
	return &record, nil
}

func (svc *WorkspaceService) Share(shareID string) (*model.ShareRecord, error) {
	shares := map[string]model.ShareRecord{}
	if err := svc.readDoc(shared.KeyShares, &shares); err != nil {
		return nil, err
	}

	record, ok := shares[shareID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// ==================== RECENT GENERATIONS ====================

// PushRecentGeneration prepends to the recent ring, dropping beyond the cap.
func (svc *WorkspaceService) PushRecentGeneration(summary, styleText, actionText string, spec *model.MotionSpec) (*model.RecentGeneration, error) {
	recents := []model.RecentGeneration{}
	if err := svc.readDoc(shared.KeyRecentGenerations, &recents); err != nil {
		return nil, err
	}

	generation := model.RecentGeneration{
		ID:         uuid.NewString(),
		CreatedAt:  nowStamp(),
		Summary:    summary,
		StyleText:  styleText,
		ActionText: actionText,
		MotionSpec: spec,
	}

	merged := append([]model.RecentGeneration{generation}, recents...)
	if len(merged) > shared.MaxRecentGenerations {
		merged = merged[:shared.MaxRecentGenerations]
	}

	if err := svc.writeDoc(shared.KeyRecentGenerations, merged); err != nil {
		return nil, err
	}

	svc.broadcast()
	return &generation, nil
}

func (svc *WorkspaceService) RecentGenerations(limit int) ([]model.RecentGeneration, error) {
	recents := []model.RecentGeneration{}
	if err := svc.readDoc(shared.KeyRecentGenerations, &recents); err != nil {
		return nil, err
	}
	if limit > 0 && len(recents) > limit {
		recents = recents[:limit]
	}
	return recents, nil
}

// ==================== ANALYTICS ====================

func (svc *WorkspaceService) RecordGenerationAnalytics(exportTimeMs int) error {
	state := model.AnalyticsState{GenerationEvents: []model.AnalyticsEvent{}}
	if err := svc.readDoc(shared.KeyAnalytics, &state); err != nil {
		return err
	}

	event := model.AnalyticsEvent{
		ID:           uuid.NewString(),
		CreatedAt:    nowStamp(),
		ExportTimeMs: exportTimeMs,
	}

	state.GenerationEvents = append([]model.AnalyticsEvent{event}, state.GenerationEvents...)
	if len(state.GenerationEvents) > shared.MaxAnalyticsEvents {
		state.GenerationEvents = state.GenerationEvents[:shared.MaxAnalyticsEvents]
	}

	if err := svc.writeDoc(shared.KeyAnalytics, state); err != nil {
		return err
	}

	svc.broadcast()
	return nil
}

// AnalyticsSummary aggregates today's generation count, the running average
// export time (seconds, one decimal) and the project count.
func (svc *WorkspaceService) AnalyticsSummary() (*dto.AnalyticsSummaryResponse, error) {
	state := model.AnalyticsState{GenerationEvents: []model.AnalyticsEvent{}}
	if err := svc.readDoc(shared.KeyAnalytics, &state); err != nil {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")
	todayCount := 0
	totalMs := 0
	for _, event := range state.GenerationEvents {
		totalMs += event.ExportTimeMs
		if created, err := time.Parse(time.RFC3339, event.CreatedAt); err == nil {
			if created.Local().Format("2006-01-02") == today {
				todayCount++
			}
		}
	}

	avgSeconds := 0.0
	if len(state.GenerationEvents) > 0 {
		avgMs := float64(totalMs) / float64(len(state.GenerationEvents))
		avgSeconds = math.Round(avgMs/100) / 10
	}

	projects, err := svc.Projects()
	if err != nil {
		return nil, err
	}

	return &dto.AnalyticsSummaryResponse{
		GenerationsToday: todayCount,
		AvgExportSeconds: avgSeconds,
		ActiveProjects:   len(projects),
	}, nil
}

// ==================== TOUR & SOUND ====================

func (svc *WorkspaceService) TourCompleted() (bool, error) {
	raw, err := svc.store.Get(shared.KeyTourCompleted)
	if err != nil {
		return false, err
	}
	return string(raw) == "1", nil
}

func (svc *WorkspaceService) SetTourCompleted() error {
	if err := svc.store.Put(shared.KeyTourCompleted, []byte("1")); err != nil {
		return err
	}
	svc.broadcast()
	return nil
}

func (svc *WorkspaceService) SoundEnabled() (bool, error) {
	raw, err := svc.store.Get(shared.KeySoundPreference)
	if err != nil {
		return false, err
	}
	// Sound is on unless explicitly disabled.
	return string(raw) != "0", nil
}

func (svc *WorkspaceService) SetSoundEnabled(enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := svc.store.Put(shared.KeySoundPreference, []byte(value)); err != nil {
		return err
	}
	svc.broadcast()
	return nil
}

// ==================== CHAT HISTORY ====================

// ChatHistory drops malformed entries and caps stored message length, so a
// corrupted document degrades instead of failing the read.
func (svc *WorkspaceService) ChatHistory() ([]model.ChatMessage, error) {
	messages := []model.ChatMessage{}
	if err := svc.readDoc(shared.KeyChatHistory, &messages); err != nil {
		return nil, err
	}

	normalized := make([]model.ChatMessage, 0, len(messages))
	for _, message := range messages {
		if message.ID == "" || message.CreatedAt == "" {
			continue
		}
		if message.Role != shared.RoleUser && message.Role != shared.RoleAssistant {
			continue
		}
		message.Content = shared.TruncateRunes(message.Content, shared.MaxStoredMessageLen)
		normalized = append(normalized, message)
	}
	return normalized, nil
}

// SaveChatHistory keeps the most recent entries up to the cap.
func (svc *WorkspaceService) SaveChatHistory(messages []model.ChatMessage) error {
	if len(messages) > shared.MaxChatHistory {
		messages = messages[len(messages)-shared.MaxChatHistory:]
	}

	if err := svc.writeDoc(shared.KeyChatHistory, messages); err != nil {
		return err
	}

	svc.broadcast()
	return nil
}

func (svc *WorkspaceService) ClearChatHistory() error {
	if err := svc.store.Delete(shared.KeyChatHistory); err != nil {
		return err
	}
	svc.broadcast()
	return nil
}
