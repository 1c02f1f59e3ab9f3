package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/starks-ai/motion_api/shared"
)

// GeminiService talks to the Generative Language API. It owns model fallback
// and the defensive extraction of text/audio from the deeply optional
// response envelope.
type GeminiService struct {
	appContext.DefaultService

	httpClient *http.Client
	apiKey     string
	baseURL    string
}

const GEMINI_SVC = "gemini_svc"

const defaultGeminiBase = "https://generativelanguage.googleapis.com"

func (svc GeminiService) Id() string {
	return GEMINI_SVC
}

func (svc *GeminiService) Configure(ctx *appContext.Context) error {
	svc.apiKey = os.Getenv("GEMINI_API_KEY")

	svc.baseURL = os.Getenv("GEMINI_API_BASE")
	if svc.baseURL == "" {
		svc.baseURL = defaultGeminiBase
	}

	timeout := 20 * time.Second
	if raw := os.Getenv("GEMINI_TIMEOUT_SECONDS"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			timeout = time.Duration(seconds) * time.Second
		}
	}
	svc.httpClient = &http.Client{Timeout: timeout}

	return svc.DefaultService.Configure(ctx)
}

func (svc *GeminiService) Start() error {
	if !svc.Ready() {
		log.Warn("GEMINI_API_KEY is not set; generation endpoints will return 500")
	}
	return nil
}

// Ready reports whether the upstream credential is configured. Orchestrators
// must fail fast before any rate limit bookkeeping when it is not.
func (svc *GeminiService) Ready() bool {
	return svc.apiKey != ""
}

// ==================== WIRE TYPES ====================

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts,omitempty"`
}

type GeminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *GeminiBlob `json:"inlineData,omitempty"`
}

type GeminiBlob struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type GeminiSpeechConfig struct {
	VoiceConfig *GeminiVoiceConfig `json:"voiceConfig,omitempty"`
}

type GeminiVoiceConfig struct {
	PrebuiltVoiceConfig *GeminiPrebuiltVoice `json:"prebuiltVoiceConfig,omitempty"`
}

type GeminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature        float64             `json:"temperature,omitempty"`
	TopP               float64             `json:"topP,omitempty"`
	TopK               int                 `json:"topK,omitempty"`
	MaxOutputTokens    int                 `json:"maxOutputTokens,omitempty"`
	ResponseMimeType   string              `json:"responseMimeType,omitempty"`
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	SpeechConfig       *GeminiSpeechConfig `json:"speechConfig,omitempty"`
}

type GeminiRequest struct {
	Contents         []GeminiContent         `json:"contents"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiResponse mirrors the upstream envelope. Every level is optional;
// extraction degrades to empty values instead of failing.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates,omitempty"`
}

type GeminiCandidate struct {
	Content *GeminiContent `json:"content,omitempty"`
}

type InlineAudio struct {
	AudioBase64 string `json:"audioBase64"`
	MimeType    string `json:"mimeType"`
}

// upstreamError carries the HTTP status so the fallback loop can tell
// "model not found" apart from failures no model switch would fix.
type upstreamError struct {
	statusCode int
	message    string
}

func (e *upstreamError) Error() string {
	return e.message
}

func (e *upstreamError) retryableWithNextModel() bool {
	return e.statusCode == http.StatusNotFound &&
		strings.Contains(strings.ToLower(e.message), "not found")
}

// ==================== REQUESTS ====================

// GenerateContent issues a single generateContent call against one model.
func (svc *GeminiService) GenerateContent(ctx context.Context, model string, req *GeminiRequest) (*GeminiResponse, error) {
	body, err := shared.JSONAPI.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", svc.baseURL, model, svc.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := svc.httpClient.Do(httpReq)
	if err != nil {
		RecordGeminiRequest(model, 0)
		return nil, &upstreamError{statusCode: 0, message: sanitizeUpstreamMessage(err.Error())}
	}
	defer resp.Body.Close()

	RecordGeminiRequest(model, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := parseUpstreamErrorMessage(string(raw))
		if message == "" {
			message = "Gemini request failed."
		}
		log.WithFields(log.Fields{
			"model":  model,
			"status": resp.StatusCode,
		}).Warn("Gemini request failed")
		return nil, &upstreamError{statusCode: resp.StatusCode, message: message}
	}

	var payload GeminiResponse
	if err := shared.JSONAPI.Unmarshal(raw, &payload); err != nil {
		return nil, &upstreamError{statusCode: resp.StatusCode, message: "Gemini returned a malformed response body."}
	}

	return &payload, nil
}

// GenerateWithFallback walks the candidate models in order. A 404 whose
// message contains "not found" moves on to the next model; any other failure
// stops the loop immediately.
func (svc *GeminiService) GenerateWithFallback(ctx context.Context, models []string, req *GeminiRequest) (*GeminiResponse, error) {
	var lastErr error = &upstreamError{message: "Gemini request failed."}

	for _, model := range models {
		payload, err := svc.GenerateContent(ctx, model, req)
		if err == nil {
			return payload, nil
		}

		lastErr = err
		if upErr, ok := err.(*upstreamError); ok && upErr.retryableWithNextModel() {
			log.WithField("model", model).Info("Model unavailable, trying next candidate")
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

// ==================== EXTRACTION ====================

// ExtractText concatenates the text of every part in the first candidate.
// Missing levels resolve to an empty string.
func (svc *GeminiService) ExtractText(payload *GeminiResponse) string {
	if payload == nil || len(payload.Candidates) == 0 {
		return ""
	}

	content := payload.Candidates[0].Content
	if content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String())
}

// ExtractInlineAudio returns the first inline-data part of the first
// candidate, or nil when the response carries no audio.
func (svc *GeminiService) ExtractInlineAudio(payload *GeminiResponse) *InlineAudio {
	if payload == nil || len(payload.Candidates) == 0 {
		return nil
	}

	content := payload.Candidates[0].Content
	if content == nil {
		return nil
	}

	for _, part := range content.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}

		mimeType := part.InlineData.MimeType
		if mimeType == "" {
			mimeType = "audio/wav"
		}
		return &InlineAudio{
			AudioBase64: part.InlineData.Data,
			MimeType:    mimeType,
		}
	}

	return nil
}

// ==================== ERROR SANITIZATION ====================

var whitespaceRun = regexp.MustCompile(`\s+`)

// parseUpstreamErrorMessage prefers the structured error.message field,
// falling back to a collapsed, truncated copy of the raw body.
func parseUpstreamErrorMessage(raw string) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := shared.JSONAPI.UnmarshalFromString(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}

	return sanitizeUpstreamMessage(raw)
}

func sanitizeUpstreamMessage(raw string) string {
	clean := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	return shared.TruncateRunes(clean, 240)
}
