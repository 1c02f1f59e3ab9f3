package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

func newTestChat(baseURL string) *ChatService {
	return &ChatService{geminiSvc: newTestGemini(baseURL)}
}

func TestReplyReturnsExtractedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse("Starks clones movement identity from 60 seconds of footage."))
	}))
	defer server.Close()

	svc := newTestChat(server.URL)
	reply, err := svc.Reply(context.Background(), dto.ChatRequest{
		Messages: []dto.ChatTurn{{Role: shared.RoleUser, Content: "What does Starks do?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Starks clones movement identity from 60 seconds of footage.", reply)
}

func TestReplyMapsAssistantRoleToModel(t *testing.T) {
	var wireReq GeminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &wireReq)
		_ = json.NewEncoder(w).Encode(textResponse("ok"))
	}))
	defer server.Close()

	svc := newTestChat(server.URL)
	_, err := svc.Reply(context.Background(), dto.ChatRequest{
		Messages: []dto.ChatTurn{
			{Role: shared.RoleUser, Content: "hello"},
			{Role: shared.RoleAssistant, Content: "hi there"},
			{Role: shared.RoleUser, Content: "tell me more"},
		},
	})
	require.NoError(t, err)

	// System prompt leads, then the mapped conversation.
	require.Len(t, wireReq.Contents, 4)
	assert.Equal(t, shared.RoleUser, wireReq.Contents[0].Role)
	assert.Equal(t, shared.RoleUser, wireReq.Contents[1].Role)
	assert.Equal(t, shared.RoleModel, wireReq.Contents[2].Role)
	assert.Equal(t, shared.RoleUser, wireReq.Contents[3].Role)
}

func TestReplyRejectsOversizedConversation(t *testing.T) {
	svc := newTestChat("")

	_, err := svc.Reply(context.Background(), dto.ChatRequest{
		Messages: []dto.ChatTurn{
			{Role: shared.RoleUser, Content: strings.Repeat("a", 2000)},
			{Role: shared.RoleAssistant, Content: strings.Repeat("b", 2000)},
			{Role: shared.RoleUser, Content: strings.Repeat("c", 2000)},
			{Role: shared.RoleAssistant, Content: strings.Repeat("d", 2000)},
			{Role: shared.RoleUser, Content: strings.Repeat("e", 2000)},
			{Role: shared.RoleUser, Content: "x"},
		},
	})
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "Conversation is too long.", appErr.Message)
}

func TestReplyBudgetCountsCharactersNotBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse("ok"))
	}))
	defer server.Close()

	svc := newTestChat(server.URL)

	// 10,000 CJK characters are ~30,000 bytes but exactly on budget.
	messages := []dto.ChatTurn{
		{Role: shared.RoleUser, Content: strings.Repeat("語", 2000)},
		{Role: shared.RoleAssistant, Content: strings.Repeat("語", 2000)},
		{Role: shared.RoleUser, Content: strings.Repeat("語", 2000)},
		{Role: shared.RoleAssistant, Content: strings.Repeat("語", 2000)},
		{Role: shared.RoleUser, Content: strings.Repeat("語", 2000)},
	}

	_, err := svc.Reply(context.Background(), dto.ChatRequest{Messages: messages})
	require.NoError(t, err)

	over := append(messages, dto.ChatTurn{Role: shared.RoleUser, Content: "x"})
	_, err = svc.Reply(context.Background(), dto.ChatRequest{Messages: over})
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Conversation is too long.", appErr.Message)
}

func TestReplyEmptyResponseIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	svc := newTestChat(server.URL)
	_, err := svc.Reply(context.Background(), dto.ChatRequest{
		Messages: []dto.ChatTurn{{Role: shared.RoleUser, Content: "hello"}},
	})
	require.Error(t, err)

	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, appErr.StatusCode)
	assert.Equal(t, "Gemini returned an empty chat response.", appErr.Message)
}

func TestChatSystemPromptPageHints(t *testing.T) {
	landing := chatSystemPrompt(shared.PageLanding)
	demo := chatSystemPrompt(shared.PageDemo)
	unknown := chatSystemPrompt("")

	assert.Contains(t, landing, "landing context")
	assert.Contains(t, demo, "demo usage")
	assert.Equal(t, landing, unknown)
	assert.NotEqual(t, landing, demo)
}

func TestReplyFallsBackAcrossChatModels(t *testing.T) {
	var attempts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model := modelFromPath(r.URL.Path)
		attempts = append(attempts, model)

		if model == chatModels[0] {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "models/" + model + " is not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(textResponse("served by fallback"))
	}))
	defer server.Close()

	svc := newTestChat(server.URL)
	reply, err := svc.Reply(context.Background(), dto.ChatRequest{
		Messages: []dto.ChatTurn{{Role: shared.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "served by fallback", reply)
	assert.Equal(t, []string{chatModels[0], chatModels[1]}, attempts)
}
