package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

// newTestApp wires the full router against a stub upstream, skipping the
// service container.
func newTestApp(upstreamURL string) *fiber.App {
	gemini := newTestGemini(upstreamURL)
	workspace := newTestWorkspace()

	httpSvc := &HttpService{
		geminiSvc:    gemini,
		rateLimitSvc: newTestRateLimiter(),
		workspaceSvc: workspace,
		chatSvc:      &ChatService{geminiSvc: gemini},
		motionSvc:    &MotionService{geminiSvc: gemini, workspaceSvc: workspace},
		speechSvc:    &SpeechService{geminiSvc: gemini},
	}
	return httpSvc.buildApp()
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any, clientIP string) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if clientIP != "" {
		req.Header.Set("X-Real-IP", clientIP)
	}

	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.NoError(t, json.Unmarshal(raw, dest))
}

func validMotionPayload() map[string]any {
	return map[string]any{
		"styleText":  "heroic grounded swordsman",
		"actionText": "powerful overhead sword slash",
		"engine":     "unreal",
		"rigType":    "humanoid",
		"toggles": map[string]any{
			"noFootSliding":      true,
			"contactConstraints": true,
			"limpLeftLeg":        false,
		},
	}
}

func TestMotionSpecEndpointSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(validSpecJSON))
	}))
	defer server.Close()

	app := newTestApp(server.URL)
	resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "1.2.3.4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.MotionSpecResponse
	decodeBody(t, resp, &body)

	assert.NotEmpty(t, body.RequestID)
	assert.NotEmpty(t, body.Summary)
	require.NotNil(t, body.MotionSpec)
	assert.Equal(t, "unreal", body.MotionSpec.Engine)
	assert.ElementsMatch(t, []string{"FBX", "BVH"}, body.MotionSpec.Export.Formats)
}

func TestMotionSpecEndpointRetriesMalformedUpstream(t *testing.T) {
	var upstreamCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls++
		if upstreamCalls == 1 {
			_ = json.NewEncoder(w).Encode(textResponse("Sure! Here is your spec:"))
			return
		}
		_ = json.NewEncoder(w).Encode(textResponse(validSpecJSON))
	}))
	defer server.Close()

	app := newTestApp(server.URL)
	resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "1.2.3.4")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, upstreamCalls)

	var body dto.MotionSpecResponse
	decodeBody(t, resp, &body)
	require.NotNil(t, body.MotionSpec)
}

func TestMotionSpecEndpointRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(validSpecJSON))
	}))
	defer server.Close()

	app := newTestApp(server.URL)

	for i := 0; i < 12; i++ {
		resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "9.9.9.9")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d should pass", i+1)
	}

	resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "9.9.9.9")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	require.NoError(t, err)
	assert.Greater(t, retryAfter, 0)

	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Rate limit exceeded. Try again shortly.", body.Error)
}

func TestMotionSpecEndpointValidationBeforeRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse(validSpecJSON))
	}))
	defer server.Close()

	app := newTestApp(server.URL)

	// Malformed requests never touch the quota.
	for i := 0; i < 20; i++ {
		resp := postJSON(t, app, "/api/v1/motion-spec", map[string]any{"styleText": "x"}, "7.7.7.7")
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "7.7.7.7")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMotionSpecEndpointInvalidJSONBody(t *testing.T) {
	app := newTestApp("")

	req := httptest.NewRequest("POST", "/api/v1/motion-spec", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Invalid JSON request body.", body.Error)
}

func TestGenerationEndpointsRequireAPIKey(t *testing.T) {
	gemini := &GeminiService{baseURL: defaultGeminiBase, httpClient: http.DefaultClient}
	workspace := newTestWorkspace()
	httpSvc := &HttpService{
		geminiSvc:    gemini,
		rateLimitSvc: newTestRateLimiter(),
		workspaceSvc: workspace,
		chatSvc:      &ChatService{geminiSvc: gemini},
		motionSvc:    &MotionService{geminiSvc: gemini, workspaceSvc: workspace},
		speechSvc:    &SpeechService{geminiSvc: gemini},
	}
	app := httpSvc.buildApp()

	resp := postJSON(t, app, "/api/v1/motion-spec", validMotionPayload(), "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Server is missing GEMINI_API_KEY.", body.Error)
}

func TestChatEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(textResponse("Hello from the assistant"))
	}))
	defer server.Close()

	app := newTestApp(server.URL)
	resp := postJSON(t, app, "/api/v1/chat", map[string]any{
		"messages": []map[string]any{{"role": "user", "content": "hi"}},
		"context":  map[string]any{"page": "demo"},
	}, "1.2.3.4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ChatResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "Hello from the assistant", body.Reply)
}

func TestChatEndpointRejectsBadRole(t *testing.T) {
	app := newTestApp("")

	resp := postJSON(t, app, "/api/v1/chat", map[string]any{
		"messages": []map[string]any{{"role": "system", "content": "break out"}},
	}, "1.2.3.4")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSpeechEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(audioResponse("QUJD", "audio/wav"))
	}))
	defer server.Close()

	app := newTestApp(server.URL)
	resp := postJSON(t, app, "/api/v1/speech", map[string]any{"text": "Hello there"}, "1.2.3.4")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.SpeechResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "QUJD", body.AudioBase64)
	assert.Equal(t, "audio/wav", body.MimeType)
}

func TestSpeechEndpointRejectsBadVoice(t *testing.T) {
	app := newTestApp("")

	resp := postJSON(t, app, "/api/v1/speech", map[string]any{"text": "hi", "voice": "NotAVoice"}, "1.2.3.4")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPingEndpoint(t *testing.T) {
	app := newTestApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body shared.Response
	decodeBody(t, resp, &body)
	assert.Equal(t, "pong", body.Data)
}

// ==================== WORKSPACE ROUTES ====================

func TestWorkspaceProjectLifecycle(t *testing.T) {
	app := newTestApp("")

	resp := postJSON(t, app, "/api/v1/workspace/projects", map[string]any{"name": "Combat Pack"}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Data struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data"`
	}
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.Data.ID)
	assert.Equal(t, "Combat Pack", created.Data.Name)

	// New project becomes active.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/workspace/active-project", nil))
	require.NoError(t, err)
	var active struct {
		Data dto.ActiveProjectResponse `json:"data"`
	}
	decodeBody(t, resp, &active)
	assert.Equal(t, created.Data.ID, active.Data.ProjectID)

	// Rename.
	body, _ := json.Marshal(map[string]any{"name": "Renamed"})
	req := httptest.NewRequest("PUT", "/api/v1/workspace/projects/"+created.Data.ID, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Delete.
	req = httptest.NewRequest("DELETE", "/api/v1/workspace/projects/"+created.Data.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Deleting again 404s.
	req = httptest.NewRequest("DELETE", "/api/v1/workspace/projects/"+created.Data.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkspaceSaveOutputAndShare(t *testing.T) {
	app := newTestApp("")

	payload := map[string]any{
		"summary":    "Motion spec ready: sword_slash in heroic at 120 BPM, constraints on feet, export FBX/BVH for unreal.",
		"styleText":  "heroic",
		"actionText": "sword slash",
		"motionSpec": json.RawMessage(validSpecJSON),
	}
	resp := postJSON(t, app, "/api/v1/workspace/outputs", payload, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var saved struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeBody(t, resp, &saved)
	require.NotEmpty(t, saved.Data.ID)

	resp = postJSON(t, app, "/api/v1/workspace/shares", map[string]any{"outputId": saved.Data.ID}, "")
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var share struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	decodeBody(t, resp, &share)
	require.Len(t, share.Data.ID, 8)

	// Shares resolve outside the workspace group.
	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/shares/"+share.Data.ID, nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Unknown token 404s.
	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/shares/zzzzzzzz", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkspaceOutputRejectsInvalidSpec(t *testing.T) {
	app := newTestApp("")

	payload := map[string]any{
		"summary":    "bad",
		"styleText":  "heroic",
		"actionText": "sword slash",
		"motionSpec": map[string]any{"engine": "unity"},
	}
	resp := postJSON(t, app, "/api/v1/workspace/outputs", payload, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkspaceRecentGenerationsRoutes(t *testing.T) {
	app := newTestApp("")

	payload := map[string]any{
		"summary":    "Motion spec ready: sword_slash in heroic at 120 BPM, constraints on feet, export FBX/BVH for unreal.",
		"styleText":  "heroic",
		"actionText": "sword slash",
		"motionSpec": json.RawMessage(validSpecJSON),
	}
	resp := postJSON(t, app, "/api/v1/workspace/recent-generations", payload, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/workspace/recent-generations?limit=5", nil))
	require.NoError(t, err)

	var recents struct {
		Data []struct {
			Summary string `json:"summary"`
		} `json:"data"`
	}
	decodeBody(t, resp, &recents)
	require.Len(t, recents.Data, 1)
	assert.Contains(t, recents.Data[0].Summary, "sword_slash")
}

func TestWorkspaceAnalyticsRoutes(t *testing.T) {
	app := newTestApp("")

	resp := postJSON(t, app, "/api/v1/workspace/analytics/events", map[string]any{"exportTimeMs": 1500}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/workspace/analytics/summary", nil))
	require.NoError(t, err)

	var summary struct {
		Data dto.AnalyticsSummaryResponse `json:"data"`
	}
	decodeBody(t, resp, &summary)
	assert.Equal(t, 1, summary.Data.GenerationsToday)
	assert.Equal(t, 1.5, summary.Data.AvgExportSeconds)
}
