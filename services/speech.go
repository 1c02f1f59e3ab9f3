package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/starks-ai/motion_api/dto"
	"github.com/starks-ai/motion_api/shared"
)

// SpeechService synthesizes spoken audio for assistant replies. Input is
// stripped of markdown before it is sent upstream; the reply comes back as
// inline base64 audio.
type SpeechService struct {
	appContext.DefaultService

	geminiSvc *GeminiService
}

const SPEECH_SVC = "speech_svc"

const speechModel = "gemini-2.5-flash-preview-tts"

const maxSpeechChars = 1000

func (svc SpeechService) Id() string {
	return SPEECH_SVC
}

func (svc *SpeechService) Start() error {
	svc.geminiSvc = svc.Service(GEMINI_SVC).(*GeminiService)
	return nil
}

// Synthesize returns base64 audio for the request text, or a 400 when
// nothing speakable survives markdown stripping.
func (svc *SpeechService) Synthesize(ctx context.Context, req dto.SpeechRequest) (*dto.SpeechResponse, error) {
	cleanText := shared.TruncateRunes(StripMarkdownForSpeech(req.Text), maxSpeechChars)
	if cleanText == "" {
		return nil, shared.NewBadRequestError(fmt.Errorf("empty text after markdown strip"), "No speakable text found.")
	}

	voice := req.Voice
	if voice == "" {
		voice = shared.DefaultVoice
	}

	speechText := cleanText
	if req.Style != "" {
		speechText = fmt.Sprintf("Speak in a %s tone. %s", req.Style, cleanText)
	}

	payload, err := svc.geminiSvc.GenerateContent(ctx, speechModel, &GeminiRequest{
		Contents: []GeminiContent{{
			Role:  shared.RoleUser,
			Parts: []GeminiPart{{Text: speechText}},
		}},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &GeminiSpeechConfig{
				VoiceConfig: &GeminiVoiceConfig{
					PrebuiltVoiceConfig: &GeminiPrebuiltVoice{VoiceName: voice},
				},
			},
		},
	})
	if err != nil {
		return nil, shared.NewUpstreamError(err, err.Error())
	}

	audio := svc.geminiSvc.ExtractInlineAudio(payload)
	if audio == nil {
		log.WithField("voice", voice).Warn("Gemini TTS response did not include audio")
		return nil, shared.NewUpstreamError(fmt.Errorf("no inline audio in response"), "Gemini TTS response did not include audio.")
	}

	return &dto.SpeechResponse{
		AudioBase64: audio.AudioBase64,
		MimeType:    audio.MimeType,
	}, nil
}

var (
	fencedBlock  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	emphasisMark = regexp.MustCompile(`[*_>#-]`)
	spaceRun     = regexp.MustCompile(`\s+`)
)

// StripMarkdownForSpeech reduces assistant markdown to plain speakable text:
// code blocks dropped, inline code and links kept as their visible text,
// emphasis markers removed.
func StripMarkdownForSpeech(input string) string {
	out := fencedBlock.ReplaceAllString(input, " ")
	out = inlineCode.ReplaceAllString(out, "$1")
	out = markdownLink.ReplaceAllString(out, "$1")
	out = emphasisMark.ReplaceAllString(out, " ")
	out = spaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
